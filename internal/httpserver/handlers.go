package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/models"
	"github.com/planmatch/planmatch/internal/session"
)

// sendMessageRequest is the body of POST /matches/:id/messages.
type sendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"message_type" binding:"required"`
}

// getSession resolves the request's session, starting one on first use.
func (s *Server) getSession(c *gin.Context) (*session.Session, bool) {
	userID := c.GetString("user_id")
	sess, err := s.sessions.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) listMatches(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": sess.Matches()})
}

func (s *Server) getConversation(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	matchID := c.Param("id")
	if _, found := sess.Match(matchID); !found {
		writeError(c, errors.NewNotFoundError("match"))
		return
	}

	c.JSON(http.StatusOK, sess.Conversation(matchID))
}

func (s *Server) sendMessage(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewValidationError("body", "invalid request body").WithDetails(err.Error()))
		return
	}

	msg, err := sess.SendMessage(c.Request.Context(), c.Param("id"), req.Content, models.MessageType(req.MessageType))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (s *Server) confirmPlan(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	if err := sess.ConfirmPlan(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "confirmation_sent"})
}

func (s *Server) selectMatch(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	matchID := c.Param("id")
	if err := sess.SelectMatch(c.Request.Context(), matchID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Conversation(matchID))
}

func (s *Server) deselectMatch(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	sess.DeselectMatch(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deselected"})
}

func (s *Server) ratingGate(c *gin.Context) {
	sess, ok := s.getSession(c)
	if !ok {
		return
	}

	blocked, matchIDs := sess.RatingBlocked()
	c.JSON(http.StatusOK, gin.H{
		"blocked":           blocked,
		"unrated_match_ids": matchIDs,
	})
}
