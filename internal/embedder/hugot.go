package embedder

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotEmbedder implements Embedder with an in-process ONNX
// feature-extraction pipeline. No external server is required; the model
// directory must contain the exported ONNX model and tokenizer files.
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	modelID  string
	opts     Options
}

// NewHugotEmbedder loads the ONNX model at modelPath. modelID is the
// identifier used for cache partitioning and should name the exported model,
// not the local path.
func NewHugotEmbedder(modelPath, modelID string, opts Options) (*HugotEmbedder, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("hugot backend requires a model path")
	}
	if modelID == "" {
		modelID = modelPath
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedcache-feature-extraction",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	return &HugotEmbedder{
		session:  session,
		pipeline: pipeline,
		modelID:  modelID,
		opts:     opts,
	}, nil
}

// EmbedBatch runs the pipeline once over all texts.
func (e *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("pipeline returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	return postprocess(result.Embeddings, e.opts), nil
}

// ModelID returns the model identifier for cache partitioning.
func (e *HugotEmbedder) ModelID() string {
	return e.modelID
}

// Close destroys the session and releases the model.
func (e *HugotEmbedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
