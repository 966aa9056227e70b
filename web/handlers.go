package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vivaneiona/fabriclog"
)

var errBadInput = errors.New("bad input")

// page is the data behind templates/index.html.
type page struct {
	Mode    string
	Text    string
	URL     string
	Model   string
	Form    recordForm
	HasForm bool
	Raw     string
	Flash   string
	Error   string
	Saved   *fabriclog.FabricRecord
}

// recordForm holds the editable fields as the inputs display them.
type recordForm struct {
	Name       string
	Material   string
	Width      string
	Length     string
	TotalPrice string
	UnitPrice  string
	Color      string
	Shop       string
}

func formFor(r *fabriclog.FabricRecord) recordForm {
	if r == nil {
		return recordForm{}
	}
	f := recordForm{
		Name:     r.Name,
		Material: r.Material,
		Width:    r.Width,
		Color:    r.Color,
		Shop:     r.Shop,
	}
	if r.LengthM != 0 {
		f.Length = fabriclog.FormatLength(r.LengthM)
	}
	if r.TotalPrice != 0 {
		f.TotalPrice = strconv.FormatInt(r.TotalPrice, 10)
	}
	if r.UnitPricePerM != 0 {
		f.UnitPrice = strconv.FormatInt(r.UnitPricePerM, 10)
	}
	return f
}

func (s *Server) pageFor(c echo.Context, sess *fabriclog.Session) page {
	p := page{Mode: string(fabriclog.ModeText)}
	if rec := sess.Current(); rec != nil {
		p.Form = formFor(rec)
		p.HasForm = true
	}
	if m, err := sess.Model(c.Request().Context()); err == nil {
		p.Model = string(m)
	}
	return p
}

func (s *Server) index(c echo.Context) error {
	sess := s.session(c)
	return c.Render(http.StatusOK, "index", s.pageFor(c, sess))
}

func (s *Server) extract(c echo.Context) error {
	sess := s.session(c)
	ctx := c.Request().Context()

	p := s.pageFor(c, sess)
	p.Mode = c.FormValue("mode")
	p.Text = c.FormValue("text")
	p.URL = c.FormValue("url")

	in, err := s.inputFromRequest(c)
	if err == nil {
		var rec *fabriclog.FabricRecord
		rec, err = sess.Extract(ctx, in)
		if err == nil {
			p.Form = formFor(rec)
			p.HasForm = true
			p.Flash = "抽出しました。内容を確認して保存してください。"
			return c.Render(http.StatusOK, "index", p)
		}
	}

	status, msg := describe(err)
	s.log.Warn("Extract request failed", "session", sess.ID, "status", status, "error", err)
	p.Error = msg
	var mr *fabriclog.MalformedResponse
	if errors.As(err, &mr) {
		p.Raw = mr.Raw
		p.Form = recordForm{}
		p.HasForm = true
	}
	return c.Render(status, "index", p)
}

func (s *Server) save(c echo.Context) error {
	sess := s.session(c)
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := sess.Save(c.Request().Context(), fabriclog.EditsFromForm(form))
	p := s.pageFor(c, sess)
	if err != nil {
		status, msg := describe(err)
		s.log.Warn("Save request failed", "session", sess.ID, "status", status, "error", err)
		p.Error = msg
		return c.Render(status, "index", p)
	}
	p.Saved = rec
	p.Flash = fmt.Sprintf("保存しました: %s (%d円/m)", rec.Name, rec.UnitPricePerM)
	return c.Render(http.StatusOK, "index", p)
}

func (s *Server) manual(c echo.Context) error {
	s.session(c).Begin()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) clear(c echo.Context) error {
	s.session(c).Clear()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) apiRecord(c echo.Context) error {
	sess := s.session(c)
	return c.JSON(http.StatusOK, echo.Map{
		"session":  sess.ID,
		"record":   sess.Current(),
		"response": sess.LastResponse(),
	})
}

func (s *Server) apiExtract(c echo.Context) error {
	sess := s.session(c)
	in, err := s.inputFromRequest(c)
	if err != nil {
		return s.apiError(c, err)
	}
	rec, err := sess.Extract(c.Request().Context(), in)
	if err != nil {
		return s.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session": sess.ID, "record": rec})
}

func (s *Server) apiBegin(c echo.Context) error {
	sess := s.session(c)
	return c.JSON(http.StatusOK, echo.Map{"session": sess.ID, "record": sess.Begin()})
}

// saveRequest is the JSON body of /api/save. Omitted fields keep the
// extracted values.
type saveRequest struct {
	Name       *string  `json:"name"`
	Material   *string  `json:"material"`
	Width      *string  `json:"width"`
	LengthM    *float64 `json:"length"`
	TotalPrice *int64   `json:"total_price"`
	Color      *string  `json:"color"`
	Shop       *string  `json:"shop"`
}

func (r saveRequest) edits() fabriclog.Edits {
	return fabriclog.Edits{
		Name:       r.Name,
		Material:   r.Material,
		Width:      r.Width,
		LengthM:    r.LengthM,
		TotalPrice: r.TotalPrice,
		Color:      r.Color,
		Shop:       r.Shop,
	}
}

func (s *Server) apiSave(c echo.Context) error {
	sess := s.session(c)
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return s.apiError(c, fmt.Errorf("%w: %v", errBadInput, err))
	}
	rec, err := sess.Save(c.Request().Context(), req.edits())
	if err != nil {
		return s.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session": sess.ID, "record": rec})
}

func (s *Server) apiError(c echo.Context, err error) error {
	status, msg := describe(err)
	body := echo.Map{"error": msg, "detail": err.Error()}
	var mr *fabriclog.MalformedResponse
	if errors.As(err, &mr) {
		body["response"] = mr.Raw
	}
	return c.JSON(status, body)
}

// inputFromRequest reads mode, text, url and uploaded images from a form post.
func (s *Server) inputFromRequest(c echo.Context) (fabriclog.Input, error) {
	mode, err := fabriclog.ParseInputMode(c.FormValue("mode"))
	if err != nil {
		return fabriclog.Input{}, fmt.Errorf("%w: %v", errBadInput, err)
	}

	switch mode {
	case fabriclog.ModeURL:
		in := fabriclog.URLInput(c.FormValue("url"))
		in.Fetch = s.cfg.FetchPages
		return in, nil
	case fabriclog.ModeImages:
		form, err := c.MultipartForm()
		if err != nil {
			return fabriclog.Input{}, fmt.Errorf("%w: %v", errBadInput, err)
		}
		files := form.File["images"]
		if len(files) == 0 {
			return fabriclog.Input{}, fabriclog.ErrEmptyInput
		}
		sources := make([]fabriclog.ImageSource, 0, len(files))
		for _, fh := range files {
			sources = append(sources, fabriclog.ImageSource{
				Name: fh.Filename,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
		images, err := fabriclog.LoadImages(c.Request().Context(), s.cfg.MaxImagePx, sources...)
		if err != nil {
			return fabriclog.Input{}, err
		}
		in := fabriclog.ImageInput(images...)
		in.Text = c.FormValue("text")
		return in, nil
	default:
		return fabriclog.TextInput(c.FormValue("text")), nil
	}
}

// describe maps an error to a status code and an operator-facing message.
func describe(err error) (int, string) {
	var (
		mr *fabriclog.MalformedResponse
		ef *fabriclog.ExtractionFailure
		sf *fabriclog.SaveFailure
	)
	switch {
	case errors.As(err, &mr):
		return http.StatusUnprocessableEntity, "応答を読み取れませんでした。各項目を手入力してください。"
	case errors.As(err, &ef):
		return http.StatusBadGateway, "抽出に失敗しました。時間をおいて再度お試しください。"
	case errors.As(err, &sf):
		return http.StatusBadGateway, "保存に失敗しました。入力内容は保持されています。再度保存してください。"
	case errors.Is(err, fabriclog.ErrNoRecord):
		return http.StatusConflict, "保存する記録がありません。保存済みの可能性があります。抽出するか手入力を開始してください。"
	case errors.Is(err, fabriclog.ErrEmptyInput):
		return http.StatusBadRequest, "入力が空です。"
	case errors.Is(err, fabriclog.ErrNotImage):
		return http.StatusBadRequest, "画像ファイルを選択してください。"
	case errors.Is(err, errBadInput):
		return http.StatusBadRequest, "入力内容を確認してください。"
	default:
		return http.StatusInternalServerError, "予期しないエラーが発生しました。"
	}
}
