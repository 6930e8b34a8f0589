package amazon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"orderscraper/internal/models"
	"orderscraper/pkg/config"
)

// ordersPerPage is how many orders Amazon renders per history page; the
// startIndex query parameter advances in these steps.
const ordersPerPage = 10

// Session drives the real browser. It implements scraper.Session.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// NewSession launches the browser and opens a stealth page. The caller owns
// the session and must Close it on every exit path.
func NewSession(scraperConf config.ScraperConfig, amazonConf config.AmazonConfig, log *zap.Logger) (*Session, error) {
	u, err := launcher.New().Headless(scraperConf.Headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Session{
		browser: browser,
		page:    page,
		baseURL: strings.TrimRight(amazonConf.BaseURL, "/"),
		timeout: scraperConf.NavTimeout(),
		log:     log,
	}, nil
}

// Close releases the browser process.
func (s *Session) Close() error {
	return s.browser.Close()
}

// Login navigates to the order-history entry point, fills the sign-in form
// and verifies that the session actually became authenticated.
func (s *Session) Login(ctx context.Context, creds models.Credentials) error {
	p := s.page.Context(ctx)

	if err := p.Timeout(s.timeout).Navigate(s.baseURL + "/gp/css/order-history?ref_=nav_orders_first"); err != nil {
		return &AuthError{Reason: fmt.Sprintf("could not reach sign-in page: %v", err)}
	}
	if err := p.Timeout(s.timeout).WaitLoad(); err != nil {
		return &AuthError{Reason: fmt.Sprintf("sign-in page did not load: %v", err)}
	}

	emailInput, err := p.Timeout(10 * time.Second).Element("#ap_email")
	if err != nil {
		return &AuthError{Reason: "sign-in form not found"}
	}
	if err := emailInput.Input(creds.Email); err != nil {
		return &AuthError{Reason: fmt.Sprintf("could not fill email field: %v", err)}
	}

	// Newer sign-in layout splits email and password over two steps.
	if has, btn, _ := p.Timeout(2 * time.Second).Has("#continue"); has {
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err == nil {
			_ = p.Timeout(s.timeout).WaitLoad()
		}
	}

	passwordInput, err := p.Timeout(10 * time.Second).Element("#ap_password")
	if err != nil {
		return &AuthError{Reason: "password field not found"}
	}
	if err := passwordInput.Input(creds.Password); err != nil {
		return &AuthError{Reason: fmt.Sprintf("could not fill password field: %v", err)}
	}

	if has, remember, _ := p.Timeout(2 * time.Second).Has("input[name='rememberMe']"); has {
		_ = remember.Click(proto.InputMouseButtonLeft, 1)
	}

	submit, err := p.Timeout(5 * time.Second).Element("#signInSubmit")
	if err != nil {
		return &AuthError{Reason: "sign-in submit button not found"}
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &AuthError{Reason: fmt.Sprintf("could not submit sign-in form: %v", err)}
	}
	if err := p.Timeout(s.timeout).WaitLoad(); err != nil {
		return &AuthError{Reason: fmt.Sprintf("post-login page did not load: %v", err)}
	}

	if reason, manual := s.detectChallenge(p); manual {
		return &AuthError{Reason: reason, RequiresManualVerification: true}
	}

	info, err := p.Info()
	if err != nil {
		return &AuthError{Reason: fmt.Sprintf("could not inspect post-login page: %v", err)}
	}
	if strings.Contains(info.URL, "/ap/signin") {
		return &AuthError{Reason: "still on sign-in page, credentials likely incorrect"}
	}

	s.skipPhoneNumberDialog(p)

	s.log.Info("signed in", zap.String("landing_url", info.URL))
	return nil
}

// detectChallenge looks for verification pages the scraper will not
// automate: OTP prompts, captchas and email-confirmation interstitials.
func (s *Session) detectChallenge(p *rod.Page) (string, bool) {
	if has, _, _ := p.Timeout(2 * time.Second).Has("#auth-mfa-otpcode"); has {
		return "two-factor code requested", true
	}
	if has, _, _ := p.Timeout(2 * time.Second).Has("form[action='/errors/validateCaptcha']"); has {
		return "captcha challenge", true
	}
	if has, _, _ := p.Timeout(2 * time.Second).Has("#auth-verify-page"); has {
		return "email confirmation requested", true
	}
	return "", false
}

// skipPhoneNumberDialog clicks the 'skip adding phone number' link if Amazon
// put that dialog between sign-in and the order list.
func (s *Session) skipPhoneNumberDialog(p *rod.Page) {
	has, link, _ := p.Timeout(2 * time.Second).Has("#ap-account-fixup-phone-skip-link")
	if !has {
		return
	}
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.log.Warn("could not skip phone number dialog", zap.Error(err))
		return
	}
	_ = p.Timeout(s.timeout).WaitLoad()
	s.log.Info("skipped adding phone number")
}

// LoadOrderListPage fetches one page of the order-history listing for the
// given year filter and returns its rendered HTML.
func (s *Session) LoadOrderListPage(ctx context.Context, year, page int) (string, error) {
	if page < 1 {
		return "", &NavigationError{Year: year, Page: page, Err: fmt.Errorf("page numbering starts at 1")}
	}

	url := fmt.Sprintf("%s/gp/css/order-history?orderFilter=year-%d&startIndex=%d",
		s.baseURL, year, (page-1)*ordersPerPage)

	p := s.page.Context(ctx)
	if err := p.Timeout(s.timeout).Navigate(url); err != nil {
		return "", &NavigationError{Year: year, Page: page, Err: err}
	}
	if err := p.Timeout(s.timeout).WaitLoad(); err != nil {
		return "", &NavigationError{Year: year, Page: page, Err: err}
	}
	// Give late order cards a moment to settle before snapshotting.
	_ = p.Timeout(5 * time.Second).WaitStable(500 * time.Millisecond)

	html, err := p.HTML()
	if err != nil {
		return "", &NavigationError{Year: year, Page: page, Err: err}
	}

	s.log.Debug("loaded order list page", zap.Int("year", year), zap.Int("page", page))
	return html, nil
}
