package dto

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	Order       int    `json:"order"`
	Color       string `json:"color"`
}
