package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/sitecheck/pkg/browser"
)

// runCrossEngineTitle loads the home page in each configured engine, one
// after another, and compares the title literally. Every engine is checked;
// failures name the engine.
func runCrossEngineTitle(ctx context.Context, env *Env) error {
	engines, err := browser.ParseEngines(env.Config.Browser.Engines)
	if err != nil {
		return err
	}

	var failures []error
	for _, engine := range engines {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		if err := checkTitle(ctx, env, engine); err != nil {
			env.Logger.Warnf("%s: %v", engine, err)
			failures = append(failures, fmt.Errorf("%s: %w", engine, err))
			continue
		}
		env.Logger.Verbosef("%s: title ok", engine)
	}
	return errors.Join(failures...)
}

// checkTitle owns its session for exactly one engine; it is closed before
// returning so two engines never run at once.
func checkTitle(ctx context.Context, env *Env, engine browser.Engine) error {
	session, release, err := env.AcquirePage(ctx, CrossEngineTitle, engine)
	if err != nil {
		return err
	}
	defer release()

	title, err := session.Title()
	if err != nil {
		return err
	}

	if expected := env.Config.Site.ExpectedTitle; title != expected {
		return fmt.Errorf("%w: title mismatch: expected %q, got %q", ErrAssertion, expected, title)
	}
	return nil
}
