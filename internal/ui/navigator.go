package ui

// LoginLink is an [auth.Navigator] that hands the redirect login URL to the TUI, which renders it
// instead of letting it be printed underneath the alternate screen.
type LoginLink struct {
	urls chan string
}

// NewLoginLink returns an empty link.
func NewLoginLink() *LoginLink {
	return &LoginLink{urls: make(chan string, 1)}
}

// Navigate implements [auth.Navigator]. Only the newest URL is kept.
func (l *LoginLink) Navigate(url string) error {
	for {
		select {
		case l.urls <- url:
			return nil
		default:
			select {
			case <-l.urls:
			default:
			}
		}
	}
}

// Replace implements [auth.Navigator]; the TUI keeps no history.
func (l *LoginLink) Replace(string) error { return nil }

// take returns the URL of a redirect login started since the last call.
func (l *LoginLink) take() (string, bool) {
	if l == nil {
		return "", false
	}
	select {
	case url := <-l.urls:
		return url, true
	default:
		return "", false
	}
}
