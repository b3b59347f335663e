package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"project-verification/portal-backend/internal/export"
	"project-verification/portal-backend/internal/verification"
)

// ConnectionHandler upgrades a request to the session's push channel
type ConnectionHandler interface {
	ServeSession(w http.ResponseWriter, r *http.Request, slug string) error
}

// Handler handles HTTP requests for the verification wizard
type Handler struct {
	registry *Registry
	drafts   DraftRepository
	ws       ConnectionHandler
	logger   *zap.Logger
}

// NewHandler creates a new wizard handler. ws may be nil to disable the push channel.
func NewHandler(registry *Registry, drafts DraftRepository, ws ConnectionHandler, logger *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		drafts:   drafts,
		ws:       ws,
		logger:   logger,
	}
}

// RegisterRoutes registers wizard routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	v := router.Group("/verification/:slug")
	{
		v.GET("", h.getState)
		v.POST("/reload", h.reload)
		v.POST("/advance", h.advance)
		v.POST("/retreat", h.retreat)

		v.POST("/socials/:platform/link", h.linkSocial)

		v.GET("/export", h.exportRecord)

		v.GET("/contacts", h.getContacts)
		v.POST("/contacts", h.addContact)
		v.DELETE("/contacts/:name", h.removeContact)

		if h.ws != nil {
			v.GET("/ws", h.connect)
		}
	}
}

// getState handles GET /api/v1/verification/:slug
func (h *Handler) getState(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state(c, s))
}

// reload handles POST /api/v1/verification/:slug/reload
func (h *Handler) reload(c *gin.Context) {
	s, err := h.registry.Session(c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := s.Reload(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state(c, s))
}

// advance handles POST /api/v1/verification/:slug/advance
func (h *Handler) advance(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctrl, err := s.Store.Controller()
	if err != nil {
		h.respondError(c, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	form, err := decodeForm(ctrl.Step(), body, s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.Advance(c.Request.Context(), form); err != nil {
		h.saveDraft(c, s, ctrl.Step(), form, err)
		h.respondError(c, err)
		return
	}

	if err := h.drafts.Delete(c.Request.Context(), s.Slug, ctrl.Step()); err != nil {
		h.logger.Warn("Failed to delete draft", zap.String("slug", s.Slug), zap.Error(err))
	}
	if ctrl.Step() == verification.StepProjectContacts {
		s.ResetContacts()
	}
	c.JSON(http.StatusOK, h.state(c, s))
}

// retreat handles POST /api/v1/verification/:slug/retreat
func (h *Handler) retreat(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctrl, err := s.Store.Controller()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := ctrl.Retreat(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state(c, s))
}

// linkSocial handles POST /api/v1/verification/:slug/socials/:platform/link
func (h *Handler) linkSocial(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	redirect, err := s.Store.Socials().Link(c.Request.Context(), c.Param("platform"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if redirect == "" {
		c.JSON(http.StatusOK, gin.H{"already_linked": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"already_linked": false, "redirect_url": redirect})
}

// exportRecord handles GET /api/v1/verification/:slug/export?format=pdf|xlsx|csv
func (h *Handler) exportRecord(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	rec := s.Store.Snapshot().Record
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": export.ErrNoRecord.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, s.Slug, rec); err != nil {
		h.logger.Error("Failed to export verification", zap.String("slug", s.Slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export verification"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(s.Slug, format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// getContacts handles GET /api/v1/verification/:slug/contacts
func (h *Handler) getContacts(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contactsBody(s.ContactsSnapshot()))
}

// addContact handles POST /api/v1/verification/:slug/contacts
func (h *Handler) addContact(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req verification.ProjectContact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = s.EditContacts(func(f *verification.ContactsForm) error {
		if verification.IsMainSocial(req.Name) {
			return f.SetMain(req.Name, req.URL)
		}
		return f.AddOther(req)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contactsBody(s.ContactsSnapshot()))
}

// removeContact handles DELETE /api/v1/verification/:slug/contacts/:name
func (h *Handler) removeContact(c *gin.Context) {
	s, err := h.registry.Open(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	name := c.Param("name")
	removed := false
	_ = s.EditContacts(func(f *verification.ContactsForm) error {
		if verification.IsMainSocial(name) {
			removed = f.SetMain(name, "") == nil
			return nil
		}
		removed = f.Unlink(name)
		return nil
	})
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("contact %q not found", name)})
		return
	}
	c.JSON(http.StatusOK, contactsBody(s.ContactsSnapshot()))
}

// connect handles GET /api/v1/verification/:slug/ws
func (h *Handler) connect(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := h.registry.Session(slug); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.ws.ServeSession(c.Writer, c.Request, slug); err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (h *Handler) state(c *gin.Context, s *Session) gin.H {
	snap := s.Store.Snapshot()
	body := gin.H{
		"slug":      snap.Slug,
		"resolved":  snap.Resolved,
		"lastIndex": verification.LastIndex,
	}
	if !snap.Resolved {
		if snap.Err != nil {
			body["error"] = snap.Err.Error()
		}
		return body
	}

	step, _ := verification.StepAt(snap.Step)
	body["index"] = snap.Step
	body["step"] = step
	body["view"] = renderView(snap.View())
	if snap.Record != nil {
		body["status"] = snap.Record.Status
	}
	if step == verification.StepProjectContacts {
		body["contacts"] = contactsBody(s.ContactsSnapshot())
	}

	draft, err := h.drafts.Get(c.Request.Context(), snap.Slug, step)
	switch {
	case err == nil:
		body["draft"] = json.RawMessage(draft.Payload)
	case !errors.Is(err, ErrDraftNotFound):
		h.logger.Warn("Failed to load draft", zap.String("slug", snap.Slug), zap.Error(err))
	}
	return body
}

func contactsBody(f *verification.ContactsForm) gin.H {
	return gin.H{
		"form":     f,
		"contacts": f.Contacts(),
		"dirty":    f.Dirty(),
	}
}

// saveDraft keeps the submitted form when the advance did not reach the server
func (h *Handler) saveDraft(c *gin.Context, s *Session, step verification.StepName, form verification.Form, cause error) {
	var verr *verification.ValidationError
	var rerr *verification.RemoteError
	if form == nil || !(errors.As(cause, &verr) || errors.As(cause, &rerr)) {
		return
	}
	payload, err := json.Marshal(form)
	if err != nil {
		return
	}
	if err := h.drafts.Save(c.Request.Context(), s.Slug, step, payload); err != nil {
		h.logger.Warn("Failed to save draft", zap.String("slug", s.Slug), zap.String("step", string(step)), zap.Error(err))
	}
}

// decodeForm reads the body into the form type of step
func decodeForm(step verification.StepName, body []byte, s *Session) (verification.Form, error) {
	var form verification.Form
	switch step {
	case verification.StepBeforeStart:
		return verification.BeforeStartForm{}, nil
	case verification.StepSocialProfiles:
		return verification.SocialProfilesForm{}, nil
	case verification.StepSubmit:
		return nil, nil
	case verification.StepPersonalInfo:
		f := verification.PersonalInfoForm{}
		if err := decodeBody(body, &f); err != nil {
			return nil, err
		}
		form = f
	case verification.StepProjectRegistry:
		f := verification.ProjectRegistryForm{}
		if err := decodeBody(body, &f); err != nil {
			return nil, err
		}
		form = f
	case verification.StepProjectContacts:
		f := s.ContactsSnapshot()
		if err := decodeBody(body, f); err != nil {
			return nil, err
		}
		form = f
	case verification.StepManagingFunds:
		f := verification.ManagingFundsForm{}
		if err := decodeBody(body, &f); err != nil {
			return nil, err
		}
		form = f
	case verification.StepMilestones:
		f := verification.MilestonesForm{}
		if err := decodeBody(body, &f); err != nil {
			return nil, err
		}
		form = f
	case verification.StepTermAndCondition:
		f := verification.TermsForm{}
		if err := decodeBody(body, &f); err != nil {
			return nil, err
		}
		form = f
	default:
		return nil, fmt.Errorf("unknown step %s", step)
	}
	return form, nil
}

func decodeBody(body []byte, dst any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *verification.ValidationError
	var rerr *verification.RemoteError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, verification.ErrAdvanceInFlight),
		errors.Is(err, verification.ErrStaleSession),
		errors.Is(err, verification.ErrTerminalStep),
		errors.Is(err, verification.ErrNotLoaded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, verification.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &rerr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Wizard request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
