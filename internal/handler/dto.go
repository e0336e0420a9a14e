package handler

// APIError представляет стандартизированный ответ об ошибке
type APIError struct {
	Message string `json:"message"`
}

// CreateStoryRequest определяет тело запроса на создание истории
type CreateStoryRequest struct {
	// Тема будущей истории в свободной форме
	Theme string `json:"theme" binding:"required"`
}

// CreateStoryResponse определяет тело ответа на создание истории
type CreateStoryResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// MakeChoiceRequest определяет тело запроса на выбор варианта в узле
type MakeChoiceRequest struct {
	// ID текущего узла истории
	NodeID string `json:"node_id" binding:"required"`
	// Индекс выбранного варианта, начиная с 0
	OptionIndex *int `json:"option_index" binding:"required"`
}
