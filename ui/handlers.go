package ui

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"labfit/adapters/tsv"
	"labfit/app"
	"labfit/domain/core"
	"labfit/domain/fit"
	apperrors "labfit/internal/errors"

	"github.com/gin-gonic/gin"
)

// fitForm mirrors the fields of the index form
type fitForm struct {
	Title      string
	Data       string
	Columns    string
	X          string
	Y          string
	Family     string
	Model      string
	Expression string
	Params     string
}

type indexPage struct {
	Title    string
	Error    string
	Form     fitForm
	Families []string
	Models   []string
}

type reportPage struct {
	Title  string
	Report template.HTML
	Text   string
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderIndex(c, http.StatusOK, fitForm{Columns: "2", X: "0", Y: "1", Family: string(fit.FamilyLinear)}, "")
}

func (s *Server) handleFit(c *gin.Context) {
	form := fitForm{
		Title:      c.PostForm("title"),
		Data:       c.PostForm("data"),
		Columns:    c.DefaultPostForm("columns", "2"),
		X:          c.DefaultPostForm("x", "0"),
		Y:          c.DefaultPostForm("y", "1"),
		Family:     c.PostForm("family"),
		Model:      c.PostForm("model"),
		Expression: strings.TrimSpace(c.PostForm("expression")),
		Params:     c.PostForm("params"),
	}

	res, err := s.fitForm(c, form)
	if err != nil {
		s.renderIndex(c, apperrors.HTTPStatus(err), form, err.Error())
		return
	}

	title := form.Title
	if title == "" {
		title = res.Formula
	}
	s.renderTemplate(c, http.StatusOK, "report.html", reportPage{
		Title:  title,
		Report: RenderMarkdown(fit.Markdown(res, title, s.config.Digits)),
		Text:   res.Report(s.config.Digits),
	})
}

func (s *Server) fitForm(c *gin.Context, form fitForm) (*fit.Result, error) {
	columns, err := formInt("columns", form.Columns)
	if err != nil {
		return nil, err
	}
	x, err := formInt("x", form.X)
	if err != nil {
		return nil, err
	}
	y, err := formInt("y", form.Y)
	if err != nil {
		return nil, err
	}
	params, err := app.ParseParams(strings.Split(form.Params, "\n"))
	if err != nil {
		return nil, err
	}
	spec, err := app.BuildSpec(form.Family, form.Model, form.Expression, params)
	if err != nil {
		return nil, err
	}

	tbl, err := tsv.ReadTransposed(strings.NewReader(form.Data), columns)
	if err != nil {
		return nil, err
	}
	return s.fits.FitTable(c.Request.Context(), tbl, x, y, spec)
}

func (s *Server) handleModels(c *gin.Context) {
	type model struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Expression  string      `json:"expression"`
		Params      []fit.Param `json:"params"`
	}
	var out []model
	for _, name := range fit.ModelNames() {
		m, _ := fit.LookupModel(name)
		out = append(out, model{Name: m.Name, Description: m.Description, Expression: m.Expression, Params: m.Params})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) renderIndex(c *gin.Context, status int, form fitForm, errMsg string) {
	families := make([]string, len(fit.Families))
	for i, f := range fit.Families {
		families[i] = string(f)
	}
	s.renderTemplate(c, status, "index.html", indexPage{
		Error:    errMsg,
		Form:     form,
		Families: families,
		Models:   fit.ModelNames(),
	})
}

func formInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, core.NewArgumentError("%s must be an integer, got %q", field, value)
	}
	return n, nil
}
