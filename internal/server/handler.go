package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studymate/internal/domain"
)

const serviceMessage = "StudyMate AI Service is running"

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": domain.StatusSuccess, "message": serviceMessage})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  domain.StatusSuccess,
		"message": serviceMessage,
		"chunks":  s.backend.ChunkCount(),
	})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Question cannot be empty"})
		return
	}
	s.logger.Info("received question", zap.String("question", truncate(question, 100)))

	resp, err := s.backend.Answer(c.Request.Context(), question)
	if err == nil && strings.TrimSpace(resp.Answer) == "" {
		err = errEmptyAnswer
	}
	if err != nil {
		s.logger.Error("error processing question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "AI service error: " + err.Error()})
		return
	}
	if resp.Status == "" {
		resp.Status = domain.StatusSuccess
	}
	s.logger.Info("answer generated", zap.Int("sources", len(resp.Sources)))
	c.JSON(http.StatusOK, resp)
}

var errEmptyAnswer = errors.New("failed to generate answer")

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
