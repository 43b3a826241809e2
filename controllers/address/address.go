package addressControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/middleware"
	"github.com/DemonsTA4/shopping-mall/models"
)

type AddressRequest struct {
	ReceiverName  string `json:"receiver_name" binding:"required"`
	ReceiverPhone string `json:"receiver_phone" binding:"required"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	DetailAddress string `json:"detail_address" binding:"required"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		common.RespondError(c, common.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// findOwnedAddress scopes the lookup to the caller; someone else's address
// is indistinguishable from a missing one.
func findOwnedAddress(db *gorm.DB, userID string, id uint) (*models.Address, error) {
	var addr models.Address
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.E(common.ErrNotFound, "address %d does not exist", id)
		}
		return nil, err
	}
	return &addr, nil
}

// GET /user/addresses
func ListAddressesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var addresses []models.Address
		if err := db.Where("user_id = ?", userID).
			Order("is_default DESC, created_at DESC").Find(&addresses).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// POST /user/addresses
func CreateAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req AddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		addr := models.Address{
			UserID:        userID,
			ReceiverName:  req.ReceiverName,
			ReceiverPhone: req.ReceiverPhone,
			Province:      req.Province,
			City:          req.City,
			District:      req.District,
			DetailAddress: req.DetailAddress,
			PostalCode:    req.PostalCode,
			IsDefault:     req.IsDefault,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if req.IsDefault {
				if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&addr).Error
		})
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, addr)
	}
}

// PUT /user/addresses/:id
func UpdateAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "invalid address id"))
			return
		}
		addr, err := findOwnedAddress(db, userID, uint(id))
		if err != nil {
			common.RespondError(c, err)
			return
		}
		var req AddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		addr.ReceiverName = req.ReceiverName
		addr.ReceiverPhone = req.ReceiverPhone
		addr.Province = req.Province
		addr.City = req.City
		addr.District = req.District
		addr.DetailAddress = req.DetailAddress
		addr.PostalCode = req.PostalCode
		addr.IsDefault = req.IsDefault
		err = db.Transaction(func(tx *gorm.DB) error {
			if req.IsDefault {
				if err := tx.Model(&models.Address{}).
					Where("user_id = ? AND id <> ?", userID, addr.ID).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Save(addr).Error
		})
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, addr)
	}
}

// DELETE /user/addresses/:id
func DeleteAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "invalid address id"))
			return
		}
		addr, err := findOwnedAddress(db, userID, uint(id))
		if err != nil {
			common.RespondError(c, err)
			return
		}
		if err := db.Delete(addr).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}
