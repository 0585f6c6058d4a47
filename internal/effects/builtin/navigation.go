package builtin

import (
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/timeline"
)

// ViewportLocator names the scroll container. When the stage has none the
// target scrolls itself.
const ViewportLocator = "#viewport"

const (
	navigateDuration  = 600 * time.Millisecond
	scrollDuration    = 500 * time.Millisecond
	highlightDuration = 800 * time.Millisecond
	modalDuration     = 350 * time.Millisecond
	focusDuration     = 250 * time.Millisecond
)

// Navigation effect names, used by the queue for non-custom command kinds.
const (
	NavigateTo     = "navigate-to"
	ScrollIntoView = "scroll-into-view"
	Highlight      = "highlight"
	ModalOpen      = "modal-open"
	FocusRing      = "focus-ring"
)

// Navigation returns the navigation plugin.
func Navigation() effects.Plugin {
	return effects.Plugin{
		Name:    "navigation",
		Version: Version,
		Effects: []effects.Definition{
			{
				Name:         NavigateTo,
				Description:  "Scroll the target into view and flash it on arrival",
				BaseDuration: navigateDuration,
				Build:        buildNavigateTo,
				Fallback:     scrollFallback,
			},
			{
				Name:         ScrollIntoView,
				Description:  "Scroll the viewport to the target",
				BaseDuration: scrollDuration,
				Build:        buildScrollIntoView,
				Fallback:     scrollFallback,
			},
			{
				Name:         Highlight,
				Description:  "Outline the target and pulse its glow",
				BaseDuration: highlightDuration,
				Composable:   true,
				Build:        buildHighlight,
				Fallback:     instant(host.Properties{host.PropOutline: 1}),
			},
			{
				Name:         ModalOpen,
				Description:  "Fade and grow a modal into its open state",
				BaseDuration: modalDuration,
				Build:        buildModalOpen,
				Fallback:     instant(modalOpened),
			},
			{
				Name:         FocusRing,
				Description:  "Focus the target and draw its focus ring",
				BaseDuration: focusDuration,
				Build:        buildFocusRing,
				Fallback:     instant(focused),
			},
		},
	}
}

var (
	modalOpened = host.Properties{host.PropOpacity: 1, host.PropScale: 1, host.PropOpen: 1}
	focused     = host.Properties{host.PropFocus: 1, host.PropOutline: 1}
)

// scrollStep moves the viewport, or the target itself, so that the first
// target's top edge is at the top.
func scrollStep(req effects.Request, d time.Duration, easing string) timeline.Step {
	target := req.Targets[0]
	container := target
	if req.Env != nil {
		if vp := req.Env.Resolve(ViewportLocator); len(vp) > 0 {
			container = vp[0]
		}
	}
	return timeline.Step{
		Target:   container,
		To:       host.Properties{host.PropScrollY: target.Bounds.Y},
		Duration: d,
		Easing:   easing,
	}
}

func buildScrollIntoView(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(scrollDuration)
	return timeline.New(req.Effect).Add(scrollStep(req, d, req.Options.EasingOr(timeline.EaseInOutCubic))), nil
}

func scrollFallback(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	return timeline.New(req.Effect).Add(scrollStep(req, 0, "")), nil
}

// buildNavigateTo scrolls for two thirds of the duration and spends the
// last third on a brightness flash.
func buildNavigateTo(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(navigateDuration)
	scroll := d * 2 / 3
	flash := (d - scroll) / 2

	tl := timeline.New(req.Effect)
	tl.Add(scrollStep(req, scroll, req.Options.EasingOr(timeline.EaseInOutCubic)))
	for _, h := range req.Targets {
		tl.Add(timeline.Step{
			Target:   h,
			To:       host.Properties{host.PropBrightness: 1 + 0.2*req.Multiplier()},
			Offset:   scroll,
			Duration: flash,
			Repeat:   1,
			Yoyo:     true,
			Easing:   timeline.EaseOut,
		})
	}
	return tl, nil
}

func buildHighlight(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(highlightDuration)
	outline := d / 4
	pulse := (d - outline) / 2

	tl := timeline.New(req.Effect)
	for _, h := range req.Targets {
		tl.Add(
			timeline.Step{
				Target:   h,
				To:       host.Properties{host.PropOutline: 1},
				Duration: outline,
				Easing:   timeline.EaseOut,
			},
			timeline.Step{
				Target:   h,
				From:     host.Properties{host.PropGlow: 0},
				To:       host.Properties{host.PropGlow: 0.8 * req.Multiplier()},
				Offset:   outline,
				Duration: pulse,
				Repeat:   1,
				Yoyo:     true,
				Easing:   req.Options.EasingOr(timeline.EaseInOut),
			},
		)
	}
	return tl, nil
}

func buildModalOpen(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(modalDuration)

	tl := timeline.New(req.Effect)
	for _, h := range req.Targets {
		tl.Add(timeline.Step{
			Target:   h,
			From:     host.Properties{host.PropOpacity: 0, host.PropScale: 0.9, host.PropOpen: 0},
			To:       modalOpened.Clone(),
			Duration: d,
			Easing:   req.Options.EasingOr(timeline.Power3Out),
		})
	}
	return tl, nil
}

func buildFocusRing(req effects.Request) (*timeline.Timeline, error) {
	if err := requireTargets(req); err != nil {
		return nil, err
	}
	d := req.Options.DurationOr(focusDuration)

	tl := timeline.New(req.Effect)
	for _, h := range req.Targets {
		tl.Add(timeline.Step{
			Target:   h,
			To:       focused.Clone(),
			Duration: d,
			Easing:   req.Options.EasingOr(timeline.EaseOut),
		})
	}
	return tl, nil
}
