// Package browser drives real browser engines through Playwright for
// sitecheck's end-to-end scenarios.
//
// # Architecture
//
// The package is built around two types:
//
// 1. SessionManager: owns the Playwright driver process and a registry of live sessions
// 2. Session: one launched browser engine with a single browsing context and page
//
// A SessionManager is an ordinary value. Callers create one, Initialize it,
// and Shutdown it when done; there is no package-level driver.
//
// # Session Lifecycle
//
//  1. Launch: StartSession starts exactly one headless (or headed) engine
//  2. Use: Navigate / OpenPage, ClickLink, Title, URL, Cookies
//  3. Close: Session.Close or SessionManager.CloseSession terminates page,
//     context and browser unconditionally
//
// ListSessions reports whatever is still registered, which after a run
// should be nothing.
//
// Startup failures wrap ErrEngineStartup and are not retried. Navigation
// failures wrap ErrNavigation. A link that never attaches wraps
// ErrLocatorNotFound.
//
// # Engines
//
// Engine is an enumerated type. ParseEngine maps "chromium", "firefox" and
// "webkit" to variants, and the launcher for each variant is picked by a
// switch, not by name lookup.
//
// # Example Usage
//
//	manager := browser.NewSessionManager()
//	if err := manager.Initialize(browser.InitOptions{}); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	session, err := manager.StartSession(ctx, "title-firefox", browser.SessionOptions{
//	    Engine:   browser.Firefox,
//	    Headless: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	if _, err := session.OpenPage("https://www.opravy-telefonu.cz/", browser.NavigateOptions{}); err != nil {
//	    return err
//	}
//	title, err := session.Title()
package browser
