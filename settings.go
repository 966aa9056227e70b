package fabriclog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// Settings is the process configuration, read from the environment.
type Settings struct {
	GeminiAPIKey          string        `validate:"required"`
	Models                []string      `validate:"min=1,dive,required"`
	SpreadsheetID         string
	SheetName             string        `validate:"required"`
	SheetsCredentialsJSON string
	SheetsCredentialsFile string
	WorkbookPath          string        `validate:"required_without=SpreadsheetID"`
	Addr                  string        `validate:"required"`
	Timeout               time.Duration `validate:"gte=0"`
	MaxImagePx            int           `validate:"gte=0"`
	FetchPages            bool
	LogLevel              string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// LoadSettings loads the given .env files (default ".env", missing files are
// ignored), reads the environment and validates the result. A missing Gemini
// key, or a spreadsheet id without service account credentials, is reported
// as ErrMissingCredentials.
func LoadSettings(envFiles ...string) (*Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	s := &Settings{
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Models:                splitList(os.Getenv("FABRICLOG_MODELS")),
		SpreadsheetID:         strings.TrimSpace(os.Getenv("FABRICLOG_SPREADSHEET_ID")),
		SheetName:             envOr("FABRICLOG_SHEET_NAME", "在庫"),
		SheetsCredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON")),
		SheetsCredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		WorkbookPath:          envOr("FABRICLOG_WORKBOOK", "fabric-log.xlsx"),
		Addr:                  envOr("FABRICLOG_ADDR", ":8080"),
		Timeout:               60 * time.Second,
		MaxImagePx:            1600,
		FetchPages:            true,
		LogLevel:              strings.ToLower(envOr("LOG_LEVEL", "info")),
	}
	if len(s.Models) == 0 {
		s.Models = append([]string(nil), DefaultModels...)
	}
	if v := os.Getenv("FABRICLOG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FABRICLOG_TIMEOUT: %w", err)
		}
		s.Timeout = d
	}
	if v := os.Getenv("FABRICLOG_MAX_IMAGE_PX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FABRICLOG_MAX_IMAGE_PX: %w", err)
		}
		s.MaxImagePx = n
	}
	if v := os.Getenv("FABRICLOG_FETCH_PAGES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FABRICLOG_FETCH_PAGES: %w", err)
		}
		s.FetchPages = b
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings. Credential problems wrap ErrMissingCredentials.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "GeminiAPIKey" {
					return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingCredentials)
				}
			}
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	// Service account credentials only matter for the spreadsheet sink.
	if s.SpreadsheetID == "" || s.SheetsCredentialsJSON != "" {
		return nil
	}
	if s.SheetsCredentialsFile == "" {
		return fmt.Errorf("%w: FABRICLOG_SPREADSHEET_ID is set but neither GOOGLE_SHEETS_CREDENTIALS_JSON nor GOOGLE_APPLICATION_CREDENTIALS is", ErrMissingCredentials)
	}
	if err := validate.Var(s.SheetsCredentialsFile, "file"); err != nil {
		return fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS %q is not a readable file", ErrMissingCredentials, s.SheetsCredentialsFile)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (s *Settings) Level() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ExtractorOptions returns the extraction options implied by the settings.
func (s *Settings) ExtractorOptions() []func(*Options) {
	return []func(*Options){
		WithModels(s.Models...),
		WithTimeout(s.Timeout),
	}
}

// NewSink returns a SheetsSink when a spreadsheet is configured and a
// WorkbookSink otherwise.
func (s *Settings) NewSink(ctx context.Context, log *slog.Logger) (Sink, error) {
	if s.SpreadsheetID == "" {
		log.Info("No spreadsheet configured, appending to local workbook", "path", s.WorkbookPath)
		return NewWorkbookSink(s.WorkbookPath, s.SheetName)
	}
	var opts []option.ClientOption
	if s.SheetsCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(s.SheetsCredentialsJSON)))
	} else {
		opts = append(opts, option.WithCredentialsFile(s.SheetsCredentialsFile))
	}
	return NewSheetsSink(ctx, s.SpreadsheetID, s.SheetName, log, opts...)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
