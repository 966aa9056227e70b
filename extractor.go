package fabriclog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// Extractor sends one input plus the instruction template to the generation
// service and returns the model's free-form reply.
type Extractor struct {
	invoker Invoker
	catalog ModelCatalog
	prompts PromptProvider
	opts    Options
	log     *slog.Logger
}

// GenerateBytes generates bytes using the Gemini API via Google GenAI
func GenerateBytes(ctx context.Context, client *genai.Client, log *slog.Logger, opts ...GenerateOption) ([]byte, error) {
	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultModels[0]
	}

	var contents []*genai.Content
	for _, msg := range cfg.Messages {
		var parts []*genai.Part
		for _, part := range msg.Parts {
			switch part.Type {
			case "text":
				parts = append(parts, genai.NewPartFromText(part.Text))
			case "image":
				log.Debug("Attaching image part", "mime_type", part.MimeType, "bytes", len(part.Data))
				parts = append(parts, genai.NewPartFromBytes(part.Data, part.MimeType))
			}
		}
		if len(parts) > 0 {
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		}
	}

	if len(contents) == 0 {
		log.Debug("No valid content from messages")
		return nil, fmt.Errorf("no valid content provided")
	}

	config, err := generationConfig(cfg.Parameters)
	if err != nil {
		return nil, err
	}

	log.Debug("Generating content", "model", modelName, "content_count", len(contents))
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	log.Debug("Received response", "candidates_count", len(resp.Candidates))
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in candidate content (finish reason %q)", candidate.FinishReason)
	}

	// The reply is free-form, so every text part counts.
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no text in response")
	}

	log.Debug("Raw response content", "content", text.String())
	return []byte(text.String()), nil
}

// generationConfig turns string parameters into a GenerateContentConfig.
func generationConfig(params map[string]string) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}
	if params == nil {
		return config, nil
	}
	if temp, exists := params["temperature"]; exists {
		tempFloat, err := strconv.ParseFloat(temp, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature parameter '%s': %w", temp, err)
		}
		if tempFloat < 0 || tempFloat > 2 {
			return nil, fmt.Errorf("temperature parameter '%v' must be between 0.0 and 2.0", tempFloat)
		}
		val := float32(tempFloat)
		config.Temperature = &val
	}
	if topK, exists := params["topK"]; exists {
		topKFloat, err := strconv.ParseFloat(topK, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid topK parameter '%s': %w", topK, err)
		}
		if topKFloat <= 0 {
			return nil, fmt.Errorf("topK parameter '%v' must be greater than 0", topKFloat)
		}
		val := float32(topKFloat)
		config.TopK = &val
	}
	if topP, exists := params["topP"]; exists {
		topPFloat, err := strconv.ParseFloat(topP, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid topP parameter '%s': %w", topP, err)
		}
		if topPFloat < 0 || topPFloat > 1 {
			return nil, fmt.Errorf("topP parameter '%v' must be between 0.0 and 1.0", topPFloat)
		}
		val := float32(topPFloat)
		config.TopP = &val
	}
	if maxOutputTokens, exists := params["maxOutputTokens"]; exists {
		maxTokensInt, err := strconv.Atoi(maxOutputTokens)
		if err != nil {
			return nil, fmt.Errorf("invalid maxOutputTokens parameter '%s': %w", maxOutputTokens, err)
		}
		if maxTokensInt <= 0 {
			return nil, fmt.Errorf("maxOutputTokens parameter '%d' must be greater than 0", maxTokensInt)
		}
		config.MaxOutputTokens = int32(maxTokensInt)
	}
	// Older models reject JSON mode, so it is opt-in.
	if mt, exists := params["responseMimeType"]; exists {
		config.ResponseMIMEType = mt
	}
	return config, nil
}

// NewExtractor returns an Extractor that logs with slog.Default().
func NewExtractor(client *genai.Client, p PromptProvider, optFns ...func(*Options)) *Extractor {
	return NewExtractorWithLogger(client, p, slog.Default(), optFns...)
}

// NewExtractorWithLogger lets the caller supply their own logger.
func NewExtractorWithLogger(client *genai.Client, p PromptProvider, log *slog.Logger, optFns ...func(*Options)) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{
		invoker: &genaiInvoker{client: client, params: opts.Parameters, log: log},
		catalog: &genaiCatalog{client: client},
		prompts: p,
		opts:    opts,
		log:     log,
	}
}

// NewExtractorWithInvoker wires an Extractor to any Invoker and ModelCatalog.
// A nil catalog means the first candidate model is used unverified.
func NewExtractorWithInvoker(inv Invoker, catalog ModelCatalog, p PromptProvider, log *slog.Logger, optFns ...func(*Options)) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{invoker: inv, catalog: catalog, prompts: p, opts: opts, log: log}
}

// NewModelSelector returns a selector over the extractor's candidate models.
// Each session owns one so the choice is made once per session.
func (x *Extractor) NewModelSelector() *ModelSelector {
	return NewModelSelector(x.catalog, x.opts.models(), x.log)
}

// AvailableModels lists the models the service offers for generation.
// Without a catalog it returns the configured candidates.
func (x *Extractor) AvailableModels(ctx context.Context) ([]string, error) {
	if x.catalog == nil {
		return x.opts.models(), nil
	}
	return x.catalog.Models(ctx)
}

// Extract performs exactly one generation call for in and returns the raw
// reply. Service failures come back as *ExtractionFailure.
func (x *Extractor) Extract(ctx context.Context, model Model, in Input) (string, error) {
	x.log.Debug("=== EXTRACT STARTED ===", "mode", in.Mode, "model", model, "images", in.imageCount())

	assets, err := in.Assets()
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	// The page fetch for URL inputs counts against the same deadline.
	if x.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.opts.Timeout)
		defer cancel()
	}

	var (
		texts []string
		media []*Part
	)
	for i, asset := range assets {
		messages, err := asset.CreateMessages(ctx, x.log)
		if err != nil {
			return "", fmt.Errorf("extract: asset %d: %w", i, err)
		}
		for _, msg := range messages {
			for _, part := range msg.Parts {
				if part.Type == "text" {
					texts = append(texts, part.Text)
				} else {
					media = append(media, part)
				}
			}
		}
	}
	document := strings.Join(texts, "\n\n")

	prompt, err := x.renderPrompt(in, document)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	x.log.Debug("Final prompt constructed",
		"final_prompt_length", len(prompt),
		"final_prompt_preview", prompt[:min(300, len(prompt))],
		"media_count", len(media))

	raw, err := x.invoker.Generate(ctx, model, prompt, media)
	if err != nil {
		x.log.Debug("Generate failed", "model", model, "error", err)
		return "", &ExtractionFailure{Model: model, Err: err}
	}

	x.log.Info("Extraction call completed", "model", model, "response_length", len(raw))
	return string(raw), nil
}

func (x *Extractor) renderPrompt(in Input, document string) (string, error) {
	tag := x.opts.promptTag()
	mode := in.Mode
	if mode == "" {
		mode = ModeText
	}
	if cp, ok := x.prompts.(ContextualPromptProvider); ok {
		return cp.GetPromptWithContext(tag, x.opts.promptVersion(), map[string]any{
			"mode":        string(mode),
			"image_count": in.imageCount(),
			"keys":        RecordKeys(),
			"key_list":    strings.Join(recordKeys, ", "),
			"document":    document,
		})
	}
	tpl, err := x.prompts.GetPrompt(tag, x.opts.promptVersion())
	if err != nil {
		return "", err
	}
	return buildPrompt(tpl, recordKeys, document), nil
}

// genaiInvoker implements the Invoker interface using Google GenAI
type genaiInvoker struct {
	client *genai.Client
	params map[string]string
	log    *slog.Logger
}

func (gv *genaiInvoker) Generate(
	ctx context.Context,
	model Model,
	prompt string,
	media []*Part,
) ([]byte, error) {
	gv.log.Debug("Starting generation", "model", string(model), "prompt_length", len(prompt), "media_count", len(media))

	if gv.client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	return GenerateBytes(ctx, gv.client, gv.log,
		WithModelName(string(model)),
		WithMessages(NewUserMessage(
			append([]*Part{NewTextPart(prompt)}, media...)...,
		)),
		WithParameters(gv.params),
	)
}
