// Package explore implements the view-state and scenario-synchronization
// controller behind the electrification exploration UI: mode/scope/step
// tracking, slider-to-parameter translation, phased-plan playback, the
// national↔local zoom workflow and per-scenario presentation caching.
package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/presentation"
	"github.com/gridlume/electromap/scenario"
)

var (
	ErrNoCountry      = errors.New("no country selected")
	ErrCountryLoading = errors.New("country geometry load in progress")
	ErrRunInFlight    = errors.New("model run already in flight")
	ErrWrongMode      = errors.New("transition not available in this mode")
	ErrDynamicDenied  = errors.New("dynamic mode not available for this country")
	ErrNoDynamicPlan  = errors.New("no dynamic plan loaded")
)

// Cluster fill opacities: the national overview level and the de-emphasized
// level used while zoomed in.
const (
	clusterOpacityNormal = 0.7
	clusterOpacityDimmed = 0.2
)

const defaultRejectionClear = 3 * time.Second

// Update is the observable outcome of one transition: the new view state,
// the single visible panel, the sidebar content, and the ordered map
// directives the rendering engine must apply.
type Update struct {
	View           model.ViewState `json:"view"`
	Panel          model.Panel     `json:"panel"`
	Sidebar        string          `json:"sidebar"`
	Legend         string          `json:"legend"`
	Notice         string          `json:"notice,omitempty"`
	Offline        bool            `json:"offline,omitempty"`
	Loading        bool            `json:"loading,omitempty"`
	RunEnabled     bool            `json:"runEnabled"`
	DynamicVisible bool            `json:"dynamicVisible"`
	Directives     []Directive     `json:"directives,omitempty"`
}

// Controller is the top-level view state machine for one session. Every
// transition runs to completion under one lock; long-latency collaborator
// calls release the lock and re-enter on completion, with explicit guards
// (country-loading flag, per-scenario in-flight run gate, zoom workflow
// state) standing in for queueing.
type Controller struct {
	mu sync.Mutex

	log       logging.Logger
	runner    ModelRunner
	geo       GeometrySource
	buildings BuildingSource
	binder    Binder
	metrics   MetricsRecorder
	recorder  RunRecorder

	params *scenario.Store
	cache  *PresentationCache
	zoom   *ZoomWorkflow
	player *StepPlayer
	plan   *model.DynamicPlan

	view  model.ViewState
	panel model.Panel

	geometry       *model.CountryGeometry
	loadedCountry  string
	loadingCountry bool

	inFlight map[scenario.Key]bool

	dynamicDeny    map[string]bool
	compatVillage  bool
	rejectionClear time.Duration

	notice  string
	offline bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithBinder attaches a map binder that receives every directive batch.
func WithBinder(b Binder) Option {
	return func(c *Controller) { c.binder = b }
}

// WithMetricsRecorder attaches controller metrics.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithRunRecorder attaches a persistent run recorder.
func WithRunRecorder(r RunRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithCompatVillagePayload makes LocalReady additionally serialize the whole
// footprint collection into the plan-local parameter state, for the older
// server payload shape.
func WithCompatVillagePayload(on bool) Option {
	return func(c *Controller) { c.compatVillage = on }
}

// WithRejectionClearInterval overrides how long count rejections stay on
// screen before auto-clearing.
func WithRejectionClearInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.rejectionClear = d
		}
	}
}

// WithDynamicDenyList sets the countries for which dynamic playback is
// disabled.
func WithDynamicDenyList(countries []string) Option {
	return func(c *Controller) {
		c.dynamicDeny = make(map[string]bool, len(countries))
		for _, name := range countries {
			c.dynamicDeny[name] = true
		}
	}
}

// NewController wires a session controller around its collaborators.
func NewController(runner ModelRunner, geo GeometrySource, buildings BuildingSource, log logging.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logging.Noop()
	}
	c := &Controller{
		log:            log,
		runner:         runner,
		geo:            geo,
		buildings:      buildings,
		binder:         NoopBinder{},
		params:         scenario.NewStore(),
		cache:          NewPresentationCache(),
		zoom:           NewZoomWorkflow(),
		view:           model.Home(),
		panel:          model.PanelLanding,
		inFlight:       make(map[scenario.Key]bool),
		dynamicDeny:    map[string]bool{},
		rejectionClear: defaultRejectionClear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns the current view state.
func (c *Controller) View() model.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Params exposes the session parameter store (for the API surface to read
// descriptor metadata alongside values).
func (c *Controller) Params() *scenario.Store { return c.params }

func (c *Controller) zoomState() ZoomState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom.State()
}

// --- Simple panel transitions -------------------------------------------

// GoHome shows the landing panel.
func (c *Controller) GoHome() *Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("go-home")
	c.panel = model.PanelLanding
	c.notice = ""
	return c.finish()
}

// GoAbout shows the about panel.
func (c *Controller) GoAbout() *Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("go-about")
	c.panel = model.PanelAbout
	return c.finish()
}

// ChooseCountryScreen shows the country chooser.
func (c *Controller) ChooseCountryScreen() *Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("choose-country")
	c.panel = model.PanelCountries
	return c.finish()
}

// --- Country selection ---------------------------------------------------

// SelectCountry loads the national geometry for a country the first time it
// is selected. The load shows the only blocking loading indicator in the
// system: a second SelectCountry while one is loading is refused rather than
// queued. Re-selecting the already-loaded country just switches panels.
func (c *Controller) SelectCountry(ctx context.Context, name string) (*Update, error) {
	c.mu.Lock()
	c.transition("select-country")
	if c.loadingCountry {
		c.mu.Unlock()
		return nil, ErrCountryLoading
	}
	if name == c.loadedCountry && c.geometry != nil {
		c.view.Country = name
		c.panel = model.PanelExplore
		u := c.finish()
		c.mu.Unlock()
		return u, nil
	}
	c.loadingCountry = true
	c.mu.Unlock()

	geom, err := c.geo.CountryGeometry(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingCountry = false
	if err != nil {
		c.offline = true
		c.log.Error(ctx, "country geometry load failed",
			logging.String("country", name), logging.String("error", err.Error()))
		return c.finish(), nil
	}
	c.offline = false
	c.geometry = geom
	c.loadedCountry = name
	c.view = model.ViewState{Mode: model.ModeNone, Scope: model.ScopeNational, Country: name}
	c.panel = model.PanelExplore
	c.params.SetCountry(name)

	batch := []Directive{
		setData(LayerClusters, geom.Clusters),
		setData(LayerGrid, geom.Grid),
		setFillOpacity(LayerClusters, clusterOpacityNormal),
		setPopup(LayerClusters, true),
	}
	if bounds, ok := collectionBounds(geom.Clusters); ok {
		batch = append(batch, fitBounds(bounds))
	}
	return c.finishWith(batch), nil
}

// --- Mode entry ----------------------------------------------------------

// EnterPlan switches to national planning mode. Idempotent for an
// already-selected country: no geometry is re-fetched.
func (c *Controller) EnterPlan() (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("enter-plan")
	if c.loadedCountry == "" {
		return nil, ErrNoCountry
	}
	if err := c.params.EnsureInitialized(scenario.PlanNational); err != nil {
		return nil, err
	}
	c.view.Mode = model.ModePlan
	c.panel = model.PanelExplore

	batch := []Directive{
		setVisible(LayerNetwork, true),
		setVisible(LayerGrid, true),
		setPaint(LayerClusters, "fill-color", clusterTypePaint("type")),
		setFilter(LayerClusters, nil),
	}
	// A stage filter from an earlier playback must not linger once the
	// stepper is gone: outside playback all network geometry is visible.
	if c.view.DynamicStep == 0 {
		batch = append(batch, setFilter(LayerNetwork, nil))
	}
	return c.finishWith(batch), nil
}

// EnterFind switches to find-opportunities mode: network hidden, clusters on
// the continuous score ramp, and the current slider window applied as the
// display filter.
func (c *Controller) EnterFind() (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("enter-find")
	if c.loadedCountry == "" {
		return nil, ErrNoCountry
	}
	if c.view.Scope == model.ScopeLocal {
		return nil, fmt.Errorf("%w: find mode is national only", ErrWrongMode)
	}
	if err := c.params.EnsureInitialized(scenario.FindNational); err != nil {
		return nil, err
	}
	c.view.Mode = model.ModeFind
	c.view.DynamicStep = 0
	c.panel = model.PanelExplore

	st, err := c.params.State(scenario.FindNational)
	if err != nil {
		return nil, err
	}
	pred, err := scenario.BuildPredicate(st)
	if err != nil {
		return nil, err
	}

	batch := []Directive{
		setVisible(LayerNetwork, false),
		setVisible(LayerGrid, true),
		setPaint(LayerClusters, "fill-color", scorePaint()),
		setFilter(LayerClusters, pred.MapFilter()),
	}
	return c.finishWith(batch), nil
}

// --- Parameters ----------------------------------------------------------

// SetParameter writes one slider value. It never triggers a model run. For
// the find-national scenario the already-loaded cluster geometry is
// re-filtered immediately and locally; plan scenarios wait for an explicit
// Run because recomputation is a remote call.
func (c *Controller) SetParameter(key scenario.Key, name string, v scenario.Value) (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("set-parameter")
	if err := c.params.Set(key, name, v); err != nil {
		return nil, err
	}
	if key != scenario.FindNational {
		return c.finish(), nil
	}

	st, err := c.params.State(key)
	if err != nil {
		return nil, err
	}
	pred, err := scenario.BuildPredicate(st)
	if err != nil {
		return nil, err
	}
	return c.finishWith([]Directive{setFilter(LayerClusters, pred.MapFilter())}), nil
}

// SetMultiFactor toggles the multiple-connection-factor flag injected into
// plan run payloads.
func (c *Controller) SetMultiFactor(key scenario.Key, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.params.EnsureInitialized(key); err != nil {
		return err
	}
	st, err := c.params.State(key)
	if err != nil {
		return err
	}
	st.MultiFactor = on
	return nil
}

// --- Model runs ----------------------------------------------------------

// activeScenario maps the current view to its scenario key.
func (c *Controller) activeScenario() (scenario.Key, error) {
	switch {
	case c.view.Mode == model.ModePlan && c.view.Scope == model.ScopeNational:
		return scenario.PlanNational, nil
	case c.view.Mode == model.ModePlan && c.view.Scope == model.ScopeLocal:
		return scenario.PlanLocal, nil
	case c.view.Mode == model.ModeFind:
		return scenario.FindNational, nil
	}
	return "", fmt.Errorf("%w: no scenario active", ErrWrongMode)
}

// Run requests a model run for the active scenario. Per scenario key at most
// one run is in flight: the gate opens again only when this call's
// completion (success or failure) has been applied. Runs are refused while a
// building fetch is pending. There is no cancellation and no timeout; a
// stale result still applies if its target layers exist.
func (c *Controller) Run(ctx context.Context) (*Update, error) {
	c.mu.Lock()
	c.transition("run")
	key, err := c.activeScenario()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.zoom.State() == ZoomPending {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: building fetch pending", ErrZoomBusy)
	}
	if c.inFlight[key] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRunInFlight, key)
	}
	if err := c.params.EnsureInitialized(key); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	// The runner reads outside the lock, so it gets a detached copy: slider
	// writes during the flight touch the live store, not this payload.
	st, err := c.params.Snapshot(key)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.inFlight[key] = true
	c.mu.Unlock()

	started := time.Now()
	result, runErr := c.runner.Run(ctx, key, st)
	elapsed := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[key] = false

	if runErr != nil {
		c.offline = true
		if c.metrics != nil {
			c.metrics.ObserveRun(string(key), "error", elapsed.Seconds())
		}
		c.log.Error(ctx, "model run failed",
			logging.String("scenario", string(key)), logging.String("error", runErr.Error()))
		return c.finish(), nil
	}
	c.offline = false
	if c.metrics != nil {
		c.metrics.ObserveRun(string(key), "ok", elapsed.Seconds())
	}
	if c.recorder != nil {
		if err := c.recorder.RecordRun(ctx, key, st, result.Summary, elapsed.Milliseconds()); err != nil {
			c.log.Warn(ctx, "run record failed", logging.String("error", err.Error()))
		}
	}

	summaryHTML, err := presentation.Summary(key, result.Summary)
	if err != nil {
		return nil, err
	}
	legendHTML, err := presentation.Legend(key)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, Snapshot{Summary: summaryHTML, Legend: legendHTML})

	var batch []Directive
	for layer, fc := range result.Layers {
		batch = append(batch, setData(layer, fc))
	}

	// A national plan run with dynamic enabled replaces the phased plan.
	if key == scenario.PlanNational && st.Dynamic && len(result.Steps) > 0 {
		plan, err := buildDynamicPlan(result.Steps)
		if err != nil {
			return nil, err
		}
		c.plan = plan
		c.player = NewStepPlayer(plan)
		c.view.DynamicStep = 1
		batch = append(batch, c.player.Directives()...)
		u := c.finishWith(batch)
		if err := c.applyStepSummary(u); err != nil {
			return nil, err
		}
		return u, nil
	}
	batch = append(batch, redraw())
	return c.finishWith(batch), nil
}

// buildDynamicPlan validates and indexes the per-step results of a phased
// run. Missing years fall back to the five-year phase spacing from 2025.
func buildDynamicPlan(steps []model.StepResult) (*model.DynamicPlan, error) {
	if len(steps) != model.DynamicSteps {
		return nil, fmt.Errorf("dynamic plan has %d steps, want %d", len(steps), model.DynamicSteps)
	}
	var plan model.DynamicPlan
	for i, s := range steps {
		s.Step = i + 1
		if s.Year == 0 {
			s.Year = 2025 + 5*i
		}
		plan.Steps[i] = s
	}
	return &plan, nil
}

// --- Dynamic playback ----------------------------------------------------

// SetDynamic toggles dynamic playback mode. Denied countries refuse to
// enter; leaving removes the stage filter so all network geometry shows.
func (c *Controller) SetDynamic(on bool) (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("set-dynamic")
	if c.view.Mode != model.ModePlan || c.view.Scope != model.ScopeNational {
		return nil, fmt.Errorf("%w: dynamic playback is plan-national only", ErrWrongMode)
	}
	if on && c.dynamicDeny[c.view.Country] {
		return nil, fmt.Errorf("%w: %s", ErrDynamicDenied, c.view.Country)
	}
	if err := c.params.EnsureInitialized(scenario.PlanNational); err != nil {
		return nil, err
	}
	st, err := c.params.State(scenario.PlanNational)
	if err != nil {
		return nil, err
	}
	st.Dynamic = on

	if !on {
		c.view.DynamicStep = 0
		return c.finishWith([]Directive{setFilter(LayerNetwork, nil), redraw()}), nil
	}

	if c.player != nil {
		c.player.Reset()
	}
	c.view.DynamicStep = 1
	if c.plan == nil {
		// Affordance shows; the stage filter applies once a run builds a plan.
		return c.finish(), nil
	}
	u := c.finishWith(c.player.Directives())
	if err := c.applyStepSummary(u); err != nil {
		return nil, err
	}
	return u, nil
}

// DynamicNext advances playback one step. At step 4 it is a guarded no-op.
func (c *Controller) DynamicNext() (*Update, error) {
	return c.dynamicStep(func(p *StepPlayer) bool { return p.Next() })
}

// DynamicPrev rewinds playback one step. At step 1 it is a guarded no-op.
func (c *Controller) DynamicPrev() (*Update, error) {
	return c.dynamicStep(func(p *StepPlayer) bool { return p.Prev() })
}

func (c *Controller) dynamicStep(move func(*StepPlayer) bool) (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("dynamic-step")
	if c.view.DynamicStep == 0 {
		return nil, fmt.Errorf("%w: dynamic mode inactive", ErrWrongMode)
	}
	if c.plan == nil || c.player == nil {
		return nil, ErrNoDynamicPlan
	}
	if !move(c.player) {
		// Boundary no-op: state unchanged, nothing to redraw.
		return c.finish(), nil
	}
	c.view.DynamicStep = c.player.Step()
	u := c.finishWith(c.player.Directives())
	if err := c.applyStepSummary(u); err != nil {
		return nil, err
	}
	return u, nil
}

// applyStepSummary swaps the sidebar to the current step's precomputed
// summary in place of the cached scenario snapshot.
func (c *Controller) applyStepSummary(u *Update) error {
	html, err := presentation.StepSummary(c.player.Current())
	if err != nil {
		return err
	}
	u.Sidebar = html
	return nil
}

// --- Zoom workflow -------------------------------------------------------

// ClusterSelected zooms toward a clicked cluster: it derives the bounding
// box, de-emphasizes the national clusters, disables the hover popup and
// issues exactly one building-footprint fetch. A transport failure leaves
// the workflow pending with Retry/Cancel as the only ways out; a successful
// fetch is admitted through the building-count window.
func (c *Controller) ClusterSelected(ctx context.Context, cluster *model.Feature) (*Update, error) {
	c.mu.Lock()
	c.transition("cluster-selected")
	if c.view.Mode != model.ModePlan || c.view.Scope != model.ScopeNational {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: local zoom is reachable only from plan mode", ErrWrongMode)
	}
	dynamicActive := c.view.DynamicStep > 0
	bounds, err := c.zoom.Begin(cluster, dynamicActive)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.applyBatch([]Directive{
		setFillOpacity(LayerClusters, clusterOpacityDimmed),
		setPopup(LayerClusters, false),
	})
	c.mu.Unlock()

	return c.fetchAndAdmit(ctx, bounds)
}

// RetryBuildings re-issues the footprint fetch after a transport failure.
// Retry is always user-triggered; the workflow itself never retries.
func (c *Controller) RetryBuildings(ctx context.Context) (*Update, error) {
	c.mu.Lock()
	c.transition("retry-buildings")
	if c.zoom.State() != ZoomPending {
		c.mu.Unlock()
		return nil, ErrNotPending
	}
	bounds := c.zoom.Bounds()
	c.mu.Unlock()

	return c.fetchAndAdmit(ctx, bounds)
}

// CancelZoom abandons a pending fetch and restores the national overlay.
func (c *Controller) CancelZoom() (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("cancel-zoom")
	if err := c.zoom.Cancel(); err != nil {
		return nil, err
	}
	c.notice = ""
	return c.finishWith(c.restoreNationalOverlay()), nil
}

func (c *Controller) fetchAndAdmit(ctx context.Context, bounds model.BBox) (*Update, error) {
	raw, err := c.buildings.FetchBuildings(ctx, bounds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Transport failure: stay pending, no automatic retry. The user
		// escapes via RetryBuildings or CancelZoom.
		c.offline = true
		if c.metrics != nil {
			c.metrics.ObserveFootprintFetch("error")
		}
		c.log.Error(ctx, "building footprint fetch failed", logging.String("error", err.Error()))
		return c.finish(), nil
	}
	c.offline = false

	state, err := c.zoom.Admit(raw)
	if err != nil {
		return nil, err
	}

	switch state {
	case ZoomLocalReady:
		if c.metrics != nil {
			c.metrics.ObserveFootprintFetch("ok")
		}
		return c.enterLocal(bounds)
	case ZoomRejectedTooFew:
		if c.metrics != nil {
			c.metrics.ObserveFootprintFetch("rejected-too-few")
		}
		return c.rejectZoom(fmt.Sprintf("Only %d buildings found here — too few to analyse (minimum %d).", len(raw), MinBuildings)), nil
	case ZoomRejectedTooMany:
		if c.metrics != nil {
			c.metrics.ObserveFootprintFetch("rejected-too-many")
		}
		return c.rejectZoom(fmt.Sprintf("%d buildings found here — too many to analyse (maximum %d).", len(raw), MaxBuildings)), nil
	}
	return nil, fmt.Errorf("unexpected zoom state %s after admit", state)
}

// enterLocal completes the zoom-in: local scope, plan-local parameters
// initialized, the footprints bound as the buildings layer and the run gate
// cleared.
func (c *Controller) enterLocal(bounds model.BBox) (*Update, error) {
	if err := c.params.EnsureInitialized(scenario.PlanLocal); err != nil {
		return nil, err
	}
	footprints := c.zoom.Footprints()
	if c.compatVillage {
		st, err := c.params.State(scenario.PlanLocal)
		if err != nil {
			return nil, err
		}
		st.Village = footprints
	}
	c.view.Scope = model.ScopeLocal
	c.view.DynamicStep = 0
	c.inFlight[scenario.PlanLocal] = false
	c.notice = ""

	batch := []Directive{
		setData(LayerBuildings, footprints),
		setVisible(LayerBuildings, true),
		fitBounds(bounds),
	}
	return c.finishWith(batch), nil
}

// rejectZoom surfaces a count rejection: the national overlay comes back
// immediately and the notice auto-clears after the display interval.
func (c *Controller) rejectZoom(notice string) *Update {
	c.notice = notice
	batch := c.restoreNationalOverlay()
	time.AfterFunc(c.rejectionClear, c.clearRejection)
	return c.finishWith(batch)
}

// clearRejection is the timed companion of rejectZoom.
func (c *Controller) clearRejection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.zoom.ClearRejection() {
		c.notice = ""
	}
}

// ZoomOut returns from local scope to the national view, restoring the mode
// and dynamic affordance exactly as they were before the cluster click.
func (c *Controller) ZoomOut() (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition("zoom-out")
	restoreDynamic, err := c.zoom.ZoomOut()
	if err != nil {
		return nil, err
	}
	c.view.Scope = model.ScopeNational
	c.notice = ""
	if restoreDynamic {
		c.view.DynamicStep = 1
		if c.player != nil {
			c.view.DynamicStep = c.player.Step()
		}
	} else {
		c.view.DynamicStep = 0
	}

	batch := append(c.restoreNationalOverlay(), setVisible(LayerBuildings, false))
	return c.finishWith(batch), nil
}

func (c *Controller) restoreNationalOverlay() []Directive {
	return []Directive{
		setFillOpacity(LayerClusters, clusterOpacityNormal),
		setPopup(LayerClusters, true),
	}
}

// --- Update assembly -----------------------------------------------------

func (c *Controller) transition(name string) {
	if c.metrics != nil {
		c.metrics.ObserveTransition(name)
	}
}

// sidebarSnapshot picks the cached snapshot appropriate to the current view.
func (c *Controller) sidebarSnapshot() Snapshot {
	key, err := c.activeScenario()
	if err != nil {
		return Snapshot{}
	}
	return c.cache.Get(key)
}

func (c *Controller) finish() *Update {
	return c.finishWith(nil)
}

func (c *Controller) finishWith(batch []Directive) *Update {
	c.applyBatch(batch)
	snap := c.sidebarSnapshot()
	key, keyErr := c.activeScenario()
	runEnabled := keyErr == nil && !c.inFlight[key] && c.zoom.State() != ZoomPending
	return &Update{
		View:           c.view,
		Panel:          c.panel,
		Sidebar:        snap.Summary,
		Legend:         snap.Legend,
		Notice:         c.notice,
		Offline:        c.offline,
		Loading:        c.loadingCountry,
		RunEnabled:     runEnabled,
		DynamicVisible: c.view.DynamicStep > 0,
		Directives:     batch,
	}
}

func (c *Controller) applyBatch(batch []Directive) {
	if len(batch) == 0 {
		return
	}
	c.binder.Apply(batch)
}

// collectionBounds unions the bounding boxes of every feature.
func collectionBounds(fc *model.FeatureCollection) (model.BBox, bool) {
	if fc == nil {
		return model.BBox{}, false
	}
	out := model.BBox{West: 180, South: 90, East: -180, North: -90}
	found := false
	for i := range fc.Features {
		b, ok := fc.Features[i].Bounds()
		if !ok {
			continue
		}
		found = true
		if b.West < out.West {
			out.West = b.West
		}
		if b.South < out.South {
			out.South = b.South
		}
		if b.East > out.East {
			out.East = b.East
		}
		if b.North > out.North {
			out.North = b.North
		}
	}
	if !found {
		return model.BBox{}, false
	}
	return out, true
}
