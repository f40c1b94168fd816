// detection.go — фасад анализа файлов Detection API.
// Операции: AnalyzeImage, AnalyzeVideo (multipart), History,
// AnalysisDetails, Stats, DeleteAnalysis.
package detector

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DetectionAPI — операции анализа и истории текущего пользователя.
type DetectionAPI struct {
	c *Client
}

// statsResponse — обёртка ответа GET /detection/stats.
type statsResponse struct {
	Stats UserStats `json:"stats"`
}

// detailsResponse — обёртка ответа GET /detection/history/{id}.
type detailsResponse struct {
	Analysis HistoryRecord `json:"analysis"`
}

// deleteResponse — ответ DELETE-операций: {"message": "..."}.
type deleteResponse struct {
	Message string `json:"message"`
}

// AnalyzeImage отправляет изображение на анализ.
// POST /detection/analyze/image, multipart-поле "file".
func (d *DetectionAPI) AnalyzeImage(ctx context.Context, fileName string, file io.Reader) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := d.c.upload(ctx, "/detection/analyze/image", fileName, file, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeVideo отправляет видео на анализ.
// POST /detection/analyze/video, multipart-поле "file".
func (d *DetectionAPI) AnalyzeVideo(ctx context.Context, fileName string, file io.Reader) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := d.c.upload(ctx, "/detection/analyze/video", fileName, file, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History возвращает страницу истории анализов текущего пользователя.
// GET /detection/history?page=N&per_page=M (сервер ограничивает per_page до 100).
func (d *DetectionAPI) History(ctx context.Context, page, perPage int) (*HistoryPage, error) {
	var result HistoryPage
	path := fmt.Sprintf("/detection/history?page=%d&per_page=%d", page, perPage)
	if err := d.c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalysisDetails возвращает одну запись истории по идентификатору.
// GET /detection/history/{id}.
func (d *DetectionAPI) AnalysisDetails(ctx context.Context, id int) (*HistoryRecord, error) {
	var resp detailsResponse
	path := fmt.Sprintf("/detection/history/%d", id)
	if err := d.c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Analysis, nil
}

// Stats возвращает статистику анализов текущего пользователя.
// GET /detection/stats.
func (d *DetectionAPI) Stats(ctx context.Context) (*UserStats, error) {
	var resp statsResponse
	if err := d.c.doJSON(ctx, http.MethodGet, "/detection/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

// DeleteAnalysis удаляет запись истории текущего пользователя.
// DELETE /detection/history/{id}.
func (d *DetectionAPI) DeleteAnalysis(ctx context.Context, id int) error {
	var resp deleteResponse
	path := fmt.Sprintf("/detection/history/%d", id)
	return d.c.doJSON(ctx, http.MethodDelete, path, nil, &resp)
}
