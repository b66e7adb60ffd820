package rest

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/server/services"
	"github.com/dmitrijs2005/flowrev/internal/timex"
)

type createCardRequest struct {
	Title  string `json:"titulo"`
	Column string `json:"coluna"`
}

type moveCardRequest struct {
	Column string `json:"coluna"`
}

// updateCardRequest carries a partial card; absent and null fields stay nil.
type updateCardRequest struct {
	Title       *string     `json:"titulo"`
	Description *string     `json:"descricao"`
	DueDate     *timex.Date `json:"dataEntrega"`
	Assignee    *string     `json:"responsavel"`
}

type commentRequest struct {
	Text   string `json:"texto"`
	Author string `json:"autor"`
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest).SetInternal(err)
}

func cardID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, badRequest(err)
	}
	return id, nil
}

var errMissingBody = errors.New("request body is required")

// bindJSON decodes a required request body; an empty one is a 400.
func bindJSON(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 {
		return badRequest(errMissingBody)
	}
	if err := c.Bind(dst); err != nil {
		return badRequest(err)
	}
	return nil
}

func (s *Server) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) listCards(c echo.Context) error {
	cards, err := s.cards.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cards)
}

func (s *Server) getCard(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	card, err := s.cards.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) createCard(c echo.Context) error {
	var req createCardRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	card, err := s.cards.Create(c.Request().Context(), req.Title, req.Column)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) moveCard(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	var req moveCardRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	card, err := s.cards.Move(c.Request().Context(), id, req.Column)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) updateCard(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	var req updateCardRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	card, err := s.cards.UpdateDetails(c.Request().Context(), id, services.CardDetails{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignee:    req.Assignee,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) deleteCard(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	if err := s.cards.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// uploadAttachment answers 400 for a missing or empty file and 500 for any
// other failure, unknown cards included.
func (s *Server) uploadAttachment(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(err)
	}
	if fh.Size == 0 {
		return badRequest(common.ErrorEmptyFile)
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	defer f.Close()

	a, err := s.attachments.Upload(c.Request().Context(), id, fh.Filename, f, fh.Size)
	if err != nil {
		if errors.Is(err, common.ErrorEmptyFile) || errors.Is(err, common.ErrorValidation) {
			return badRequest(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) listAttachments(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	list, err := s.attachments.ListByCard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// downloadFile serves /files/:name. echo routes on the escaped path when the
// request carries one, leaving the parameter escaped.
func (s *Server) downloadFile(c echo.Context) error {
	name := c.Param("name")
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			return badRequest(err)
		}
		name = unescaped
	}
	rc, err := s.attachments.Open(c.Request().Context(), name)
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

func (s *Server) addComment(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	comment, err := s.comments.Add(c.Request().Context(), id, req.Text, req.Author)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

func (s *Server) listComments(c echo.Context) error {
	id, err := cardID(c)
	if err != nil {
		return err
	}
	list, err := s.comments.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorEmptyFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError replaces echo's default error handler: responses carry only
// a status code, and server errors are logged.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Internal != nil {
			err = he.Internal
		}
	}

	ctx := c.Request().Context()
	if code >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	} else {
		s.logger.Debug(ctx, "request rejected", "status", code, "error", err)
	}

	if err := c.NoContent(code); err != nil {
		s.logger.Error(ctx, "write error response", "error", err)
	}
}
