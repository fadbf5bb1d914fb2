package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"informe/internal/config"
	"informe/internal/domain"
	"informe/internal/infra/chrome"
	"informe/internal/infra/logging"
	"informe/internal/render"
	"informe/internal/report"
)

//go:embed static/index.html
var indexPage string

const pdfFilename = "informe.pdf"

// TemplateRenderer builds the report document.
type TemplateRenderer interface {
	Render(req domain.ReportRequest, family domain.FontFamily) (report.Document, error)
}

// Converter turns a loaded document into a PDF.
type Converter interface {
	ToPDF(ctx context.Context, src render.Source) (*render.Artifact, error)
}

// Prober answers whether a font is available to the rendering engine.
type Prober interface {
	Probe(ctx context.Context, fontName string) bool
}

// ReportService bundles configuration and dependencies for the report endpoints.
type ReportService struct {
	cfg       config.Config
	fonts     domain.FontSet
	templates TemplateRenderer
	converter Converter
	prober    Prober
}

// NewReportService creates a ReportService.
func NewReportService(cfg config.Config, templates TemplateRenderer, converter Converter, prober Prober) *ReportService {
	return &ReportService{
		cfg:       cfg,
		fonts:     cfg.FontSet(),
		templates: templates,
		converter: converter,
		prober:    prober,
	}
}

// HandleIndex serves the demo form.
func (svc *ReportService) HandleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexPage)
}

// HandleTemplate serves the report document built from query parameters.
func (svc *ReportService) HandleTemplate(c *fiber.Ctx) error {
	args := c.Context().QueryArgs()
	req := domain.NewReportRequest(func(key string) (string, bool) {
		if !args.Has(key) {
			return "", false
		}
		return string(args.Peek(key)), true
	}, domain.ParseFontChoice(c.Query("font")))

	doc, err := svc.templates.Render(req, svc.fonts.Family(req.Font))
	if err != nil {
		logging.Error("Template rendering failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Template rendering failed")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(doc.String())
}

// HandleFontHealth probes the font named by the :target parameter and answers
// in plain text.
func (svc *ReportService) HandleFontHealth(c *fiber.Ctx) error {
	var choice domain.FontChoice
	switch strings.ToLower(c.Params("target")) {
	case domain.FontPrimary.String():
		choice = domain.FontPrimary
	case domain.FontFallback.String():
		choice = domain.FontFallback
	default:
		return fiber.NewError(fiber.StatusNotFound, "Unknown font")
	}

	ok := svc.prober.Probe(c.UserContext(), svc.fonts.Name(choice))
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(svc.fonts.ProbeMessage(choice, ok))
}

// HandlePDF renders the submitted report and returns it as a PDF download.
func (svc *ReportService) HandlePDF(c *fiber.Ctx) error {
	req, err := parseReportBody(c, domain.ParseFontChoice(c.Query("font")))
	if err != nil {
		return err
	}

	src, err := svc.source(req)
	if errors.Is(err, errURLTooLong) {
		logging.Warn("Report too long for navigate mode", "url_bytes", len(src.URL), "max_url_bytes", svc.cfg.Limits.MaxURLBytes)
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Report too long for navigate mode")
	}
	if err != nil {
		logging.Error("Template rendering failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Template rendering failed")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), svc.cfg.RenderTimeout())
	defer cancel()
	art, err := svc.converter.ToPDF(ctx, src)
	if err != nil {
		return renderFailure(err, svc.cfg.PDF.TimeoutSecs)
	}

	if art.Len() > svc.cfg.Limits.MaxPDFBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "PDF exceeds allowed size")
	}

	logging.Info("PDF generated", "font", req.Font.String(), "bytes", art.Len(), "pages", art.Pages(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID))

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", pdfFilename))
	return c.Send(art.Bytes())
}

var errURLTooLong = errors.New("template url exceeds limits.max_url_bytes")

// source prepares what the converter loads for req, depending on the render mode.
// In navigate mode a URL the template endpoint would refuse is rejected here,
// returned together with errURLTooLong.
func (svc *ReportService) source(req domain.ReportRequest) (render.Source, error) {
	if svc.cfg.PDF.RenderMode == config.RenderModeNavigate {
		base := strings.TrimRight(svc.cfg.Server.BaseURL, "/")
		src := render.FromURL(base + "/_template?" + req.Query().Encode())
		if limit := svc.cfg.Limits.MaxURLBytes; limit > 0 && len(src.URL) > limit {
			return src, errURLTooLong
		}
		return src, nil
	}
	doc, err := svc.templates.Render(req, svc.fonts.Family(req.Font))
	if err != nil {
		return render.Source{}, err
	}
	return render.FromDocument(doc), nil
}

// renderFailure maps a conversion error to a transport error.
func renderFailure(err error, timeoutSecs int) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logging.Error("PDF generation timeout", "timeout_secs", timeoutSecs, "error", err.Error())
		return fiber.NewError(fiber.StatusRequestTimeout, "PDF rendering took too long")
	case chrome.IsSessionInterrupted(err):
		logging.Error("Chrome session interrupted", "error", err.Error())
		return fiber.NewError(fiber.StatusServiceUnavailable, "Chrome session interrupted")
	}
	logging.Error("PDF generation failed", "error", err.Error())
	return fiber.NewError(fiber.StatusInternalServerError, "PDF generation failed")
}

// parseReportBody reads the report fields from a JSON object or a form body.
// An empty body is an empty report.
func parseReportBody(c *fiber.Ctx, font domain.FontChoice) (domain.ReportRequest, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.NewReportRequest(func(string) (string, bool) { return "", false }, font), nil
	}

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		var raw map[string]json.RawMessage
		if err := c.App().Config().JSONDecoder(body, &raw); err != nil || raw == nil {
			return domain.ReportRequest{}, fiber.NewError(fiber.StatusBadRequest, "Body must be a JSON object")
		}
		return domain.NewReportRequest(jsonLookup(raw), font), nil
	}

	if form, err := c.MultipartForm(); err == nil {
		return domain.NewReportRequest(func(key string) (string, bool) {
			v := form.Value[key]
			if len(v) == 0 {
				return "", false
			}
			return v[0], true
		}, font), nil
	}

	args := c.Request().PostArgs()
	return domain.NewReportRequest(func(key string) (string, bool) {
		if !args.Has(key) {
			return "", false
		}
		return string(args.Peek(key)), true
	}, font), nil
}

// jsonLookup reads strings as-is and any other scalar as its JSON text. null
// counts as absent.
func jsonLookup(raw map[string]json.RawMessage) domain.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok {
			return "", false
		}
		text := strings.TrimSpace(string(v))
		if text == "null" {
			return "", false
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, true
		}
		return text, true
	}
}
