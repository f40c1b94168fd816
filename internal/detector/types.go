// types.go — модели данных Detection API.
// Поля повторяют wire-формат сервиса (snake_case JSON).
package detector

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Вердикты анализа.
const (
	PredictionFake = "fake"
	PredictionReal = "real"
)

// Типы файлов.
const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
)

// Identity — идентичность аутентифицированного пользователя.
type Identity struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// IsAdmin сообщает, имеет ли пользователь роль admin.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// VideoInfo — сведения о видеофайле (только для анализа видео).
type VideoInfo struct {
	DurationFormatted string `json:"duration_formatted"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
}

// QualityMetrics — метрики качества исходного файла.
type QualityMetrics struct {
	BlurScore  float64 `json:"blur_score"`
	Brightness float64 `json:"brightness"`
	IsBlurry   bool    `json:"is_blurry"`
}

// AnalysisResult — результат анализа файла.
// Опциональные поля присутствуют в зависимости от типа файла:
// FaceCount — только изображения, FramesAnalyzed и VideoInfo — только видео.
type AnalysisResult struct {
	FileName       string          `json:"file_name"`
	FileSizeMB     float64         `json:"file_size_mb"`
	FileType       string          `json:"file_type"`
	Prediction     string          `json:"prediction"`
	Confidence     float64         `json:"confidence"`
	FaceCount      *int            `json:"face_count,omitempty"`
	FramesAnalyzed *int            `json:"frames_analyzed,omitempty"`
	VideoInfo      *VideoInfo      `json:"video_info,omitempty"`
	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
	Timestamp      string          `json:"timestamp"`
	AnalysisID     int             `json:"analysis_id"`
}

// IsFake сообщает, распознан ли файл как подделка.
func (r *AnalysisResult) IsFake() bool {
	return r.Prediction == PredictionFake
}

// HistoryRecord — запись истории анализов.
// Username заполнен только в админской общей истории.
type HistoryRecord struct {
	ID              int     `json:"id"`
	Username        string  `json:"username,omitempty"`
	FileName        string  `json:"file_name"`
	FileType        string  `json:"file_type"`
	DetectionResult string  `json:"detection_result"`
	ConfidenceScore float64 `json:"confidence_score"`
	Timestamp       string  `json:"timestamp"`
}

// UserRecord — учётная запись пользователя (админский список).
type UserRecord struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// HistoryPage — страница истории анализов с пагинацией.
type HistoryPage struct {
	History    []HistoryRecord `json:"history"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

// UsersPage — страница списка пользователей с пагинацией.
type UsersPage struct {
	Users      []UserRecord `json:"users"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}

// UserStats — статистика анализов текущего пользователя.
type UserStats struct {
	TotalAnalyses     int     `json:"total_analyses"`
	FakeDetected      int     `json:"fake_detected"`
	RealDetected      int     `json:"real_detected"`
	ImagesAnalyzed    int     `json:"images_analyzed"`
	VideosAnalyzed    int     `json:"videos_analyzed"`
	AverageConfidence float64 `json:"average_confidence"`
}

// AdminStats — общесистемная статистика (admin only).
type AdminStats struct {
	TotalUsers     int `json:"total_users"`
	TotalAnalyses  int `json:"total_analyses"`
	FakeDetected   int `json:"fake_detected"`
	RealDetected   int `json:"real_detected"`
	ImagesAnalyzed int `json:"images_analyzed"`
	VideosAnalyzed int `json:"videos_analyzed"`
}

// AdminStatsResult — ответ админской статистики с последней активностью.
type AdminStatsResult struct {
	Stats          AdminStats      `json:"stats"`
	RecentActivity []HistoryRecord `json:"recent_activity"`
}
