package handlers

import (
	"github.com/gin-gonic/gin"

	"ferrex/internal/core/apperror"
	"ferrex/internal/core/id"
	"ferrex/internal/domain/fiscal"
)

// FiscalHandler handles electronic document endpoints.
type FiscalHandler struct {
	*BaseHandler
	service *fiscal.Service
}

// NewFiscalHandler creates a new fiscal handler.
func NewFiscalHandler(service *fiscal.Service) *FiscalHandler {
	return &FiscalHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

type issueResponse struct {
	DocumentID string         `json:"document_id"`
	Status     fiscal.Status  `json:"status"`
	Result     *fiscal.Result `json:"result"`
}

// Issue handles POST /api/v1/fiscal/documents.
// Numbers, stores and submits the document in one call.
func (h *FiscalHandler) Issue(c *gin.Context) {
	var doc fiscal.Document
	if !h.BindJSON(c, &doc) {
		return
	}

	res, err := h.service.Issue(c.Request.Context(), &doc)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, issueResponse{
		DocumentID: doc.ID.String(),
		Status:     doc.Status,
		Result:     res,
	})
}

// Get handles GET /api/v1/fiscal/documents/:id.
func (h *FiscalHandler) Get(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /api/v1/fiscal/documents.
func (h *FiscalHandler) List(c *gin.Context) {
	filter := fiscal.DefaultListFilter()
	filter.Series = c.Query("series")
	filter.Status = fiscal.Status(c.Query("status"))
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	docs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"documents": docs,
		"count":     len(docs),
	})
}

// Submissions handles GET /api/v1/fiscal/documents/:id/submissions.
func (h *FiscalHandler) Submissions(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	subs, err := h.service.GetSubmissions(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"submissions": subs,
		"count":       len(subs),
	})
}
