package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"capital_transport/internal/config"
	"capital_transport/internal/models"
)

// GetMyWallet returns the authenticated passenger's wallet.
func GetMyWallet(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	var wallet models.Wallet
	if err := config.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// TopUpWallet adds funds to the wallet. Naive add, no ledger.
func TopUpWallet(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	var input struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount: " + err.Error()})
		return
	}

	var wallet models.Wallet
	if err := config.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	wallet.Balance += input.Amount
	if err := config.DB.Save(&wallet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to top up wallet: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
