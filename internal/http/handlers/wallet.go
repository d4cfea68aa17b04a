package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// QuizRequest carries only the answer outcome; the reward amount comes from configuration
type QuizRequest struct {
	Correct bool `json:"correct"`
}

type RedeemRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

// Wallet returns balance, counters, today's flags and the weekly chart
func (h *Handler) Wallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	summary, err := h.Rewards.Summary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) WalletStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	status, err := h.Rewards.DailyStatus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// WalletTransactions: GET /wallet/transactions?limit=&offset=
func (h *Handler) WalletTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.Rewards.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": items,
		"total":        total,
	})
}

// QuizAnswer grants the quiz reward for a correct answer
func (h *Handler) QuizAnswer(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if !req.Correct {
		c.JSON(http.StatusOK, gin.H{"rewarded": false, "points_earned": 0})
		return
	}

	reward, err := h.Rewards.RewardForQuiz(c.Request.Context(), userID, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

func (h *Handler) Redeem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	wallet, err := h.Rewards.Redeem(c.Request.Context(), userID, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
