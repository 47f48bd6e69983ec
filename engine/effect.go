package engine

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// EffectKind enumerates the side-effect requests the engine hands to the
// presentation layer in live mode.
type EffectKind string

const (
	EffectActivateSurface EffectKind = "activate_surface"
	EffectNavigate        EffectKind = "navigate"
	EffectSetResource     EffectKind = "set_resource"
	EffectNotify          EffectKind = "notify"
)

// NoticeLevel grades notify effects.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Effect is a narrow, idempotent instruction derived from an applied event.
// It never carries transcript mutations.
type Effect struct {
	Kind      EffectKind  `json:"kind"`
	Surface   Surface     `json:"surface,omitempty"`
	ItemID    string      `json:"item_id,omitempty"`
	Tool      string      `json:"tool,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	Resource  string      `json:"resource,omitempty"`
	Level     NoticeLevel `json:"level,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Dispatcher carries effects out to whatever presents the session.
type Dispatcher interface {
	Dispatch(ctx context.Context, fx Effect) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, fx Effect) error

func (f DispatcherFunc) Dispatch(ctx context.Context, fx Effect) error { return f(ctx, fx) }

// DispatchAll hands every effect to d in order. A failing effect does not
// stop the rest; all errors are joined.
func DispatchAll(ctx context.Context, d Dispatcher, effects []Effect) error {
	var errs []error
	for _, fx := range effects {
		if err := d.Dispatch(ctx, fx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogDispatcher writes effects to a logger. Notifications use the level they
// carry; everything else logs at info.
type LogDispatcher struct {
	Logger *log.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, fx Effect) error {
	l := d.Logger
	if l == nil {
		l = log.Default()
	}
	switch fx.Kind {
	case EffectNotify:
		if fx.Level == NoticeError {
			l.Error(fx.Message)
		} else {
			l.Info(fx.Message, "level", fx.Level)
		}
	case EffectNavigate:
		l.Info("navigate", "session", fx.SessionID)
	case EffectSetResource:
		l.Info("open resource", "resource", fx.Resource, "tool", fx.Tool)
	default:
		l.Info("activate surface", "surface", fx.Surface, "tool", fx.Tool, "item", fx.ItemID)
	}
	return nil
}
