// Package pipeline runs one topology generation end to end: load the AS
// graph, select a connected subset, synthesize attributes, check
// connectivity, write GML, then digest, publish and report.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/caida-topogen/pkg/artifact"
	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/config"
	"github.com/dd0wney/caida-topogen/pkg/connectivity"
	"github.com/dd0wney/caida-topogen/pkg/geo"
	"github.com/dd0wney/caida-topogen/pkg/gml"
	"github.com/dd0wney/caida-topogen/pkg/graphstats"
	"github.com/dd0wney/caida-topogen/pkg/logging"
	"github.com/dd0wney/caida-topogen/pkg/metrics"
	"github.com/dd0wney/caida-topogen/pkg/selection"
	"github.com/dd0wney/caida-topogen/pkg/synth"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

// Stage names a pipeline step.
type Stage string

const (
	StageConfig     Stage = "config"
	StageLoad       Stage = "load"
	StageSelect     Stage = "select"
	StageSynthesize Stage = "synthesize"
	StageValidate   Stage = "validate"
	StageWrite      Stage = "write"
	StagePublish    Stage = "publish"
	StageReport     Stage = "report"
)

// Run status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Publisher uploads a finished file.
type Publisher interface {
	Publish(ctx context.Context, path, uri, digest string) error
}

// Runner carries the collaborators of a run. Nil Logger and Metrics get
// no-op and private defaults; a nil Publisher is built from Config.S3 when
// an upload is requested.
type Runner struct {
	Config    *config.Config
	Logger    logging.Logger
	Metrics   *metrics.Registry
	Publisher Publisher
}

// Run executes cfg with the given logger and metrics registry.
func Run(ctx context.Context, cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (*Report, error) {
	return (&Runner{Config: cfg, Logger: logger, Metrics: reg}).Run(ctx)
}

// Run executes the pipeline. The returned report is non-nil even on
// failure and records how far the run got. Failures are *StageError.
// Disconnected output is logged and reported but is not a failure.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Logger == nil {
		r.Logger = logging.NewNopLogger()
	}
	if r.Metrics == nil {
		r.Metrics = metrics.NewRegistry()
	}

	runID := uuid.NewString()
	log := r.Logger.With(logging.RunID(runID), logging.Component("pipeline"))
	rep := &Report{RunID: runID, StartedAt: time.Now().UTC()}
	start := time.Now()

	err := r.run(ctx, log, rep)

	rep.TotalMS = float64(time.Since(start).Microseconds()) / 1000
	rep.Status = StatusSuccess
	if err != nil {
		rep.fail(err)
	}

	if r.Config.ReportFile != "" {
		if werr := WriteReport(r.Config.ReportFile, rep); werr != nil {
			if err == nil {
				err = stageError(StageReport, werr)
				rep.fail(err)
			} else {
				log.Warn("report not written", logging.Path(r.Config.ReportFile), logging.Error(werr))
			}
		} else {
			log.Info("report written", logging.Path(r.Config.ReportFile))
		}
	}
	if err != nil {
		log.Error("generation failed",
			logging.String("category", string(rep.Category)),
			logging.Error(err))
	} else {
		log.Info("generation complete",
			logging.Int("nodes", rep.Counts.Nodes),
			logging.Int("edges", rep.Counts.Edges),
			logging.Bool("connected", rep.Connectivity.Connected),
			logging.Path(rep.Output.Path))
	}

	r.Metrics.RecordRun(rep.Status)
	r.Metrics.UpdateSystemMetrics()
	if r.Config.MetricsFile != "" {
		if merr := r.Metrics.WriteTextfile(r.Config.MetricsFile); merr != nil {
			log.Warn("metrics textfile not written", logging.Path(r.Config.MetricsFile), logging.Error(merr))
		}
	}
	return rep, err
}

func (r *Runner) run(ctx context.Context, log logging.Logger, rep *Report) error {
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
		r.Config = cfg
	}

	// config
	if err := cfg.Validate(); err != nil {
		return stageError(StageConfig, err)
	}
	plan, err := cfg.Plan()
	if err != nil {
		return stageError(StageConfig, err)
	}
	requested, _ := selection.ParseStrategy(cfg.Strategy)
	strategy := selection.Resolve(requested)
	rep.Input, rep.Seed, rep.Directed, rep.SelfLoops = cfg.Input, cfg.Seed, cfg.Directed, cfg.SelfLoops

	log.Info("starting generation",
		logging.Path(cfg.Input),
		logging.Int("nodes", cfg.Nodes),
		logging.Strategy(string(strategy)),
		logging.String("requested_strategy", string(requested)),
		logging.String("scale", selection.ScaleClass(cfg.Nodes)),
		logging.Int64("seed", cfg.Seed))

	// load
	g, err := r.load(ctx, log, rep)
	if err != nil {
		return err
	}

	// select
	res, err := r.selectNodes(ctx, log, rep, g, strategy)
	if err != nil {
		return err
	}

	// synthesize
	t, err := r.synthesize(ctx, log, rep, g, res, plan)
	if err != nil {
		return err
	}

	// validate
	if err := r.validate(ctx, log, rep, t); err != nil {
		return err
	}

	// write
	if err := r.write(ctx, log, rep, t); err != nil {
		return err
	}

	// publish
	return r.publish(ctx, log, rep)
}

func (r *Runner) enter(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return stageError(stage, err)
	}
	return nil
}

func (r *Runner) finish(rep *Report, stage Stage, d time.Duration) {
	rep.timing(stage, d)
	r.Metrics.RecordStage(string(stage), d)
}

func (r *Runner) load(ctx context.Context, log logging.Logger, rep *Report) (*aslinks.Graph, error) {
	if err := r.enter(ctx, StageLoad); err != nil {
		return nil, err
	}
	timer := logging.StartTimer(log, "loading AS links", logging.Stage(string(StageLoad)), logging.Path(r.Config.Input))
	loader := &aslinks.Loader{Workers: r.Config.Workers, Logger: log}
	g, err := loader.Load(r.Config.Input)
	if err != nil {
		timer.EndError(err)
		return nil, stageError(StageLoad, err)
	}
	stats := g.Stats()
	d := timer.End(
		logging.Int("as_nodes", g.Len()),
		logging.Int("links", g.EdgeCount()),
		logging.Int("skipped", stats.Skipped))
	r.finish(rep, StageLoad, d)
	r.Metrics.RecordLoad(d, g.Len(), g.EdgeCount(), stats.Records, stats.Skipped, stats.SelfLoops, stats.Duplicates)

	rep.Load = stats
	rep.Source = graphstats.Source(g)
	r.Metrics.RecordSourceCensus(rep.Source.Census.Largest)
	log.Debug("source census",
		logging.Int("components", rep.Source.Census.Components),
		logging.Int("largest", rep.Source.Census.Largest),
		logging.Int("isolated", rep.Source.Census.Isolated),
		logging.Float64("mean_degree", rep.Source.Degree.Mean))
	return g, nil
}

func (r *Runner) selectNodes(ctx context.Context, log logging.Logger, rep *Report, g *aslinks.Graph, strategy selection.Strategy) (*selection.Result, error) {
	if err := r.enter(ctx, StageSelect); err != nil {
		return nil, err
	}
	sel, err := selection.New(strategy, selection.Options{
		Seed:            r.Config.Seed,
		MaxRepairRounds: r.Config.MaxRepairRounds,
		Logger:          log,
	})
	if err != nil {
		return nil, stageError(StageSelect, err)
	}

	timer := logging.StartTimer(log, "selecting subgraph", logging.Stage(string(StageSelect)), logging.Strategy(string(strategy)))
	res, err := sel.Select(g, r.Config.Nodes)
	if err != nil {
		timer.EndError(err)
		return nil, stageError(StageSelect, err)
	}
	d := timer.End(logging.Count(res.Len()), logging.Int("components", res.Components))
	r.finish(rep, StageSelect, d)
	r.Metrics.RecordSelection(string(strategy), d, res.Requested, res.Len(),
		res.BridgesAdded, res.FallbackAdmitted, res.RepairRounds, res.Components)

	if res.Clamped() {
		log.Warn("target exceeds source graph; output clamped",
			logging.Int("requested", res.Requested),
			logging.Int("available", res.SourceSize))
	}
	if res.Diagnostic != "" {
		log.Warn("selection diagnostic", logging.String("diagnostic", res.Diagnostic))
	}

	rep.Selection = SelectionReport{
		Strategy:         string(res.Strategy),
		Scale:            selection.ScaleClass(res.Requested),
		Requested:        res.Requested,
		Selected:         res.Len(),
		SourceSize:       res.SourceSize,
		Clamped:          res.Clamped(),
		BridgesAdded:     res.BridgesAdded,
		FallbackAdmitted: res.FallbackAdmitted,
		RepairRounds:     res.RepairRounds,
		Components:       res.Components,
		Diagnostic:       res.Diagnostic,
	}
	return res, nil
}

func (r *Runner) synthesize(ctx context.Context, log logging.Logger, rep *Report, g *aslinks.Graph, res *selection.Result, plan geo.Plan) (*topology.Topology, error) {
	if err := r.enter(ctx, StageSynthesize); err != nil {
		return nil, err
	}
	timer := logging.StartTimer(log, "synthesizing topology", logging.Stage(string(StageSynthesize)))
	out, err := synth.New(synth.Options{
		SelfLoops:  r.Config.SelfLoops,
		Directed:   r.Config.Directed,
		PacketLoss: r.Config.PacketLoss,
		Plan:       plan,
		Workers:    r.Config.Workers,
		Logger:     log,
	}).Build(g, res.Nodes)
	if err != nil {
		timer.EndError(err)
		return nil, stageError(StageSynthesize, err)
	}
	t := out.Topology
	rep.Counts = t.Counts()
	d := timer.End(logging.Int("nodes", rep.Counts.Nodes), logging.Int("edges", rep.Counts.Edges))
	r.finish(rep, StageSynthesize, d)

	rep.EdgesByKind = make(map[string]int)
	for kind, n := range t.ByKind() {
		rep.EdgesByKind[kind.String()] = n
	}
	rep.Regions = out.Geo.PerRegion
	rep.Unassigned = out.Geo.Unassigned
	r.Metrics.RecordSynthesis(rep.EdgesByKind, rep.Regions, rep.Unassigned)
	if rep.Unassigned > 0 {
		log.Warn("region address pools exhausted", logging.Int("unassigned", rep.Unassigned))
	}
	return t, nil
}

func (r *Runner) validate(ctx context.Context, log logging.Logger, rep *Report, t *topology.Topology) error {
	if err := r.enter(ctx, StageValidate); err != nil {
		return err
	}
	start := time.Now()
	cr, err := connectivity.Validate(t)
	if err != nil {
		return stageError(StageValidate, err)
	}
	rep.Connectivity = cr
	rep.Topology = graphstats.Topology(t)
	r.finish(rep, StageValidate, time.Since(start))
	r.Metrics.RecordConnectivity(cr.Connected, cr.Unreached)

	if !cr.Connected {
		log.Warn("topology is not connected",
			logging.Int("reached", cr.Reached),
			logging.Int("unreached", cr.Unreached),
			logging.Int("components", rep.Topology.Census.Components))
	}
	return nil
}

func (r *Runner) write(ctx context.Context, log logging.Logger, rep *Report, t *topology.Topology) error {
	if err := r.enter(ctx, StageWrite); err != nil {
		return err
	}
	timer := logging.StartTimer(log, "writing GML", logging.Stage(string(StageWrite)), logging.Path(r.Config.Output))
	size, err := gml.WriteFile(r.Config.Output, t, gml.Options{
		BufferSize: r.Config.Writer.BufferSize,
		FlushEvery: r.Config.Writer.FlushEvery,
		Logger:     log,
	})
	if err != nil {
		timer.EndError(err)
		return stageError(StageWrite, err)
	}
	digest, err := artifact.Digest(r.Config.Output)
	if err != nil {
		timer.EndError(err)
		return stageError(StageWrite, err)
	}
	d := timer.End(logging.Int64("bytes", size), logging.String("digest", digest))
	r.finish(rep, StageWrite, d)
	r.Metrics.RecordOutput(d, size)

	rep.Output = OutputReport{
		Path:            r.Config.Output,
		Bytes:           size,
		Digest:          digest,
		DigestAlgorithm: artifact.DigestAlgorithm,
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, log logging.Logger, rep *Report) error {
	if r.Config.Upload == "" {
		return nil
	}
	if err := r.enter(ctx, StagePublish); err != nil {
		return err
	}
	start := time.Now()
	pub := r.Publisher
	if pub == nil {
		p, err := artifact.NewS3Publisher(ctx, r.Config.S3, log)
		if err != nil {
			r.Metrics.RecordUpload(false)
			return stageError(StagePublish, err)
		}
		pub = p
	}
	if err := pub.Publish(ctx, r.Config.Output, r.Config.Upload, rep.Output.Digest); err != nil {
		r.Metrics.RecordUpload(false)
		return stageError(StagePublish, err)
	}
	r.Metrics.RecordUpload(true)
	r.finish(rep, StagePublish, time.Since(start))
	rep.Output.Uploaded = r.Config.Upload
	log.Info("topology published", logging.String("uri", r.Config.Upload))
	return nil
}
