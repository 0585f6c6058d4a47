package host

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Element is one target declared in a stage file.
type Element struct {
	ID      string     `yaml:"id"`
	Tag     string     `yaml:"tag"`
	Classes []string   `yaml:"classes"`
	Bounds  Rect       `yaml:"bounds"`
	Props   Properties `yaml:"props"`
}

// StageFile is the on-disk layout of a stage.
type StageFile struct {
	ReducedMotion bool      `yaml:"reduced_motion"`
	Elements      []Element `yaml:"elements"`
}

// element is the live state of one stage element.
type element struct {
	Element
	helper bool
	parent string
}

// MutationFunc observes every successful Apply on a stage.
type MutationFunc func(h Handle, props Properties)

// Stage is an in-memory Environment. It keeps declaration order so locator
// results are deterministic, which the grid effects rely on for indexing.
//
// Thread Safety: all methods are safe for concurrent use.
type Stage struct {
	mu       sync.RWMutex
	elements map[string]*element
	order    []string
	reduced  bool
	helperN  int
	clock    func() time.Time
	onApply  MutationFunc
}

// NewStage creates a stage from the given elements.
func NewStage(elements ...Element) (*Stage, error) {
	return newStage(StageFile{Elements: elements})
}

// LoadStage reads a YAML stage file.
func LoadStage(path string) (*Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stage file: %w", err)
	}

	var file StageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing stage file: %w", err)
	}
	return newStage(file)
}

func newStage(file StageFile) (*Stage, error) {
	s := &Stage{
		elements: make(map[string]*element, len(file.Elements)),
		reduced:  file.ReducedMotion,
		clock:    time.Now,
	}
	for _, el := range file.Elements {
		if el.ID == "" {
			return nil, fmt.Errorf("%w: element without id", ErrInvalidStage)
		}
		if _, dup := s.elements[el.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate element id %q", ErrInvalidStage, el.ID)
		}
		el.Props = Identity().Merge(el.Props)
		el.Classes = slices.Clone(el.Classes)
		s.elements[el.ID] = &element{Element: el}
		s.order = append(s.order, el.ID)
	}
	return s, nil
}

// SetClock replaces the stage clock. Tests use it to drive time manually.
func (s *Stage) SetClock(clock func() time.Time) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

// SetReducedMotion changes the reduced-motion preference.
func (s *Stage) SetReducedMotion(reduced bool) {
	s.mu.Lock()
	s.reduced = reduced
	s.mu.Unlock()
}

// SetOnApply registers an observer for property writes.
func (s *Stage) SetOnApply(fn MutationFunc) {
	s.mu.Lock()
	s.onApply = fn
	s.mu.Unlock()
}

// Resolve implements Environment.
func (s *Stage) Resolve(locator string) []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var handles []Handle
	seen := make(map[string]struct{})
	for _, part := range strings.Split(locator, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, id := range s.order {
			el := s.elements[id]
			if !matches(el, part) {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			handles = append(handles, el.handle())
		}
	}
	return handles
}

func matches(el *element, locator string) bool {
	switch {
	case strings.HasPrefix(locator, "#"):
		return el.ID == locator[1:]
	case strings.HasPrefix(locator, "."):
		return slices.Contains(el.Classes, locator[1:])
	default:
		return el.Tag == locator
	}
}

func (el *element) handle() Handle {
	return Handle{ID: el.ID, Tag: el.Tag, Bounds: el.Bounds, Helper: el.helper}
}

// Apply implements Environment.
func (s *Stage) Apply(h Handle, props Properties) error {
	s.mu.Lock()
	el, ok := s.elements[h.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTargetNotFound, h.ID)
	}
	for k, v := range props {
		el.Props[k] = v
	}
	handle := el.handle()
	observer := s.onApply
	s.mu.Unlock()

	if observer != nil {
		observer(handle, props.Clone())
	}
	return nil
}

// Inspect implements Environment.
func (s *Stage) Inspect(h Handle) (Properties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.elements[h.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, h.ID)
	}
	return el.Props.Clone(), nil
}

// Now implements Environment.
func (s *Stage) Now() time.Time {
	s.mu.RLock()
	clock := s.clock
	s.mu.RUnlock()
	return clock()
}

// PrefersReducedMotion implements Environment.
func (s *Stage) PrefersReducedMotion() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reduced
}

// Spawn implements Environment. Helpers are centred on their parent and are
// never matched by class or tag locators.
func (s *Stage) Spawn(kind string, parent Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.elements[parent.ID]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrTargetNotFound, parent.ID)
	}

	s.helperN++
	cx, cy := p.Bounds.Center()
	el := &element{
		Element: Element{
			ID:     fmt.Sprintf("%s~%s-%d", parent.ID, kind, s.helperN),
			Tag:    kind,
			Bounds: Rect{X: cx, Y: cy},
			Props:  Identity(),
		},
		helper: true,
		parent: parent.ID,
	}
	s.elements[el.ID] = el
	s.order = append(s.order, el.ID)
	return el.handle(), nil
}

// Dispose implements Environment.
func (s *Stage) Dispose(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elements[h.ID]
	if !ok || !el.helper {
		return
	}
	delete(s.elements, h.ID)
	if i := slices.Index(s.order, h.ID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// HelperCount returns the number of live helper elements.
func (s *Stage) HelperCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, el := range s.elements {
		if el.helper {
			n++
		}
	}
	return n
}

// Locators lists every id and class locator the stage can resolve, sorted.
// Validation uses it to suggest close matches for typos.
func (s *Stage) Locators() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, el := range s.elements {
		if el.helper {
			continue
		}
		set["#"+el.ID] = struct{}{}
		for _, c := range el.Classes {
			set["."+c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
