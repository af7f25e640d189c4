package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/chatbot-decision-core/internal/config"
	"github.com/wolfman30/chatbot-decision-core/internal/decision"
	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
	"github.com/wolfman30/chatbot-decision-core/internal/fallback"
	"github.com/wolfman30/chatbot-decision-core/internal/knowledge"
	"github.com/wolfman30/chatbot-decision-core/internal/llm"
	"github.com/wolfman30/chatbot-decision-core/internal/observability/metrics"
	"github.com/wolfman30/chatbot-decision-core/internal/profile"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

// BuildEngine wires the decision engine. Triggers default to the built-in
// set when nil.
func BuildEngine(p *profile.Profile, triggers []escalation.Trigger, sessions Sessions, m *metrics.DecisionMetrics, logger *logging.Logger) (*decision.Engine, error) {
	if triggers == nil {
		triggers = escalation.DefaultTriggers()
	}
	evaluator, err := escalation.NewEvaluator(triggers)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: escalation triggers: %w", err)
	}

	opts := []decision.Option{
		decision.WithEvaluator(evaluator),
		decision.WithGenerator(fallback.NewGenerator()),
		decision.WithMetrics(m),
		decision.WithLogger(logger),
	}
	if sessions.Reader != nil {
		opts = append(opts, decision.WithSessions(sessions.Reader))
	}
	if sessions.Store != nil {
		opts = append(opts, decision.WithFailureRecorder(sessions.Store))
	}
	return decision.NewEngine(p, opts...)
}

// Knowledge groups the ingestion path collaborators.
type Knowledge struct {
	Classifier *knowledge.Classifier
	Ingestor   *knowledge.Ingestor
	Source     knowledge.DocumentSource
}

// BuildKnowledge wires classification, chunking and optional persistence.
// client may be nil, which leaves classification to rules and structure.
func BuildKnowledge(cfg *appconfig.Config, p *profile.Profile, client llm.Client, redisClient *redis.Client, s3Client knowledge.S3API, logger *logging.Logger) Knowledge {
	var classifierOpts []knowledge.ClassifierOption
	if cfg.CategoryProviderTimeout > 0 {
		classifierOpts = append(classifierOpts, knowledge.WithProviderTimeout(cfg.CategoryProviderTimeout))
	}
	if client != nil {
		classifierOpts = append(classifierOpts, knowledge.WithProvider(llm.NewCategoryProvider(client, "")))
	}
	classifier := knowledge.NewClassifier(logger, classifierOpts...)

	var ingestOpts []knowledge.IngestorOption
	if cfg.MinUsableRatio > 0 {
		ingestOpts = append(ingestOpts, knowledge.WithMinUsableRatio(cfg.MinUsableRatio))
	}
	if redisClient != nil {
		ingestOpts = append(ingestOpts, knowledge.WithChunkStore(knowledge.NewRedisChunkStore(redisClient)))
	}

	out := Knowledge{
		Classifier: classifier,
		Ingestor:   knowledge.NewIngestor(classifier, knowledge.NewProcessorFromProfile(p), logger, ingestOpts...),
	}
	if s3Client != nil && cfg.KnowledgeBucket != "" {
		out.Source = knowledge.NewS3DocumentSource(s3Client, cfg.KnowledgeBucket)
	}
	return out
}
