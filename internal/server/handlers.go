// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/portfolio-research/internal/history"
	"github.com/pdiddy/portfolio-research/pkg/types"
)

// Error messages returned in the "erro" field.
const (
	errTargetsRequired    = "vc_list é obrigatório"
	errHistoryUnavailable = "histórico indisponível"
	errInvalidID          = "id inválido"
	errEntryNotFound      = "registro não encontrado"
	errInternal           = "erro interno"
)

const defaultHistoryLimit = 50

type researchRequest struct {
	Targets []string `json:"vc_list"`
}

// historyItem is the wire form of a stored run.
type historyItem struct {
	ID        int64                  `json:"id"`
	Targets   string                 `json:"vc_list"`
	Records   []types.StartupRecord  `json:"resultado"`
	Metadata  types.ResearchMetadata `json:"metadados"`
	Success   bool                   `json:"sucesso"`
	CreatedAt time.Time              `json:"criado_em"`
}

func toHistoryItem(e history.Entry) historyItem {
	records := e.Result.Records
	if records == nil {
		records = []types.StartupRecord{}
	}
	return historyItem{
		ID:        e.ID,
		Targets:   strings.Join(e.Targets, ", "),
		Records:   records,
		Metadata:  e.Result.Metadata,
		Success:   e.Success,
		CreatedAt: e.CreatedAt,
	}
}

func (s *Server) handleResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Targets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"erro": errTargetsRequired})
		return
	}

	result := s.runner.Run(c.Request.Context(), req.Targets)

	var id any
	if s.store != nil {
		saved, err := s.store.Save(c.Request.Context(), result)
		if err != nil {
			s.logger.Error("saving research result",
				zap.String("run_id", result.Metadata.RunID), zap.Error(err))
		} else {
			id = saved
		}
	}

	body := gin.H{
		"id":        id,
		"resultado": result.Records,
		"metadados": result.Metadata,
		"sucesso":   result.Success,
	}
	if result.Error != "" {
		body["erro"] = result.Error
	}
	if result.Message != "" {
		body["mensagem"] = result.Message
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) requireStore(c *gin.Context) {
	if s.store == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"erro": errHistoryUnavailable})
		return
	}
	c.Next()
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"erro": "limit inválido"})
			return
		}
		limit = n
	}

	entries, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, fmt.Errorf("listing history: %w", err))
		return
	}

	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, toHistoryItem(e))
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	entry, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toHistoryItem(*entry))
}

func (s *Server) handleHistoryCSV(c *gin.Context) {
	entry, ok := s.lookup(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio-%d.csv"`, entry.ID))
	c.Status(http.StatusOK)
	if err := history.WriteCSV(c.Writer, entry.Result.Records); err != nil {
		_ = c.Error(err)
		s.logger.Error("writing CSV export", zap.Int64("id", entry.ID), zap.Error(err))
	}
}

// lookup resolves the :id parameter, writing the error response itself
// when it returns false.
func (s *Server) lookup(c *gin.Context) (*history.Entry, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": errInvalidID})
		return nil, false
	}

	entry, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"erro": errEntryNotFound})
		return nil, false
	}
	if err != nil {
		s.internalError(c, fmt.Errorf("loading history entry %d: %w", id, err))
		return nil, false
	}
	return entry, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	s.logger.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"erro": errInternal})
}
