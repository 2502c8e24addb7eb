package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func sendProductError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		utils.SendNotFound(c, "Product not found", err)
	case errors.Is(err, services.ErrImageNotFound):
		utils.SendNotFound(c, "Image not found", err)
	case errors.Is(err, services.ErrNotOwner):
		utils.SendForbidden(c, "Not the owner of this product")
	case errors.Is(err, services.ErrInvalidFilter):
		utils.SendError(c, http.StatusBadRequest, message, err)
	default:
		utils.SendInternalError(c, message, err)
	}
}

func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	minPrice, _ := strconv.ParseFloat(c.Query("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("max_price"), 64)
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	filter := services.ProductFilter{
		Category: c.Query("category"),
		City:     c.Query("city"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	}

	products, err := h.productService.GetProducts(c.Request.Context(), filter)
	if err != nil {
		sendProductError(c, "Failed to retrieve products", err)
		return
	}

	utils.SendSuccess(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetProductByID(c.Request.Context(), uint(productID))
	if err != nil {
		sendProductError(c, "Failed to retrieve product", err)
		return
	}

	utils.SendSuccess(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to retrieve categories", err)
		return
	}

	utils.SendSuccess(c, "Categories retrieved successfully", categories)
}

// CreateProduct accepts JSON or multipart form data (with images).
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.CreateProductRequest
	var imageFiles []*multipart.FileHeader

	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendValidationError(c, "Invalid JSON data: "+err.Error())
			return
		}
	} else {
		req.Name = c.PostForm("name")
		req.Description = c.PostForm("description")
		req.Category = c.PostForm("category")
		req.City = c.PostForm("city")

		if priceStr := c.PostForm("price"); priceStr != "" {
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil {
				utils.SendValidationError(c, "Invalid price format")
				return
			}
			req.Price = price
		}

		form, err := c.MultipartForm()
		if err == nil && form.File["images"] != nil {
			imageFiles = form.File["images"]
		}
	}

	if req.Name == "" {
		utils.SendValidationError(c, "Product name is required")
		return
	}
	if req.Price <= 0 {
		utils.SendValidationError(c, "Product price must be greater than 0")
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), userID, &req, imageFiles)
	if err != nil {
		sendProductError(c, "Failed to create product", err)
		return
	}

	utils.SendCreated(c, "Product created successfully", product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID := c.GetUint("user_id")

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid JSON data: "+err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), userID, uint(productID), &req)
	if err != nil {
		sendProductError(c, "Failed to update product", err)
		return
	}

	utils.SendSuccess(c, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID := c.GetUint("user_id")

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), userID, uint(productID)); err != nil {
		sendProductError(c, "Failed to delete product", err)
		return
	}

	utils.SendSuccess(c, "Product deleted successfully", nil)
}

// UploadImages adds images to an existing owned listing.
func (h *ProductHandler) UploadImages(c *gin.Context) {
	userID := c.GetUint("user_id")

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.SendValidationError(c, "Invalid multipart form data")
		return
	}
	imageFiles := form.File["images"]
	if len(imageFiles) == 0 {
		utils.SendValidationError(c, "No images provided")
		return
	}

	images, err := h.productService.AddImages(c.Request.Context(), userID, uint(productID), imageFiles)
	if err != nil {
		sendProductError(c, "Failed to upload images", err)
		return
	}

	utils.SendCreated(c, "Images uploaded successfully", images)
}

// DeleteImage removes one image from an owned listing.
func (h *ProductHandler) DeleteImage(c *gin.Context) {
	userID := c.GetUint("user_id")

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid product ID")
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid image ID")
		return
	}

	if err := h.productService.DeleteImage(c.Request.Context(), userID, uint(productID), imageID); err != nil {
		sendProductError(c, "Failed to delete image", err)
		return
	}

	utils.SendSuccess(c, "Image deleted successfully", nil)
}
