package controllers

import (
	"net/http"

	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetCurrencyRates returns the official USD/EUR rates. A failed scrape
// falls back to the last cached value; only a cold cache errors out.
func GetCurrencyRates(c *gin.Context) {
	rates, _, err := services.Currency.GetRates()
	if err != nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Exchange rate source unavailable")
		return
	}
	c.JSON(http.StatusOK, rates)
}
