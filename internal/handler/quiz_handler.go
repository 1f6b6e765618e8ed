package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/oralarith/internal/middleware"
	"github.com/hitoshi/oralarith/internal/quiz"
)

// QuizServiceInterface はクイズハンドラーが必要とするサービスインターフェース。
type QuizServiceInterface interface {
	SaveQuiz(ctx context.Context, userID int64, in quiz.SaveQuizInput) (string, error)
	SaveMistake(ctx context.Context, userID int64, in quiz.SaveMistakeInput) error
}

// QuizHandler はクイズ結果・誤答保存のHTTPハンドラー。
type QuizHandler struct {
	service QuizServiceInterface
}

// NewQuizHandler はQuizHandlerを生成する。
func NewQuizHandler(service QuizServiceInterface) *QuizHandler {
	return &QuizHandler{service: service}
}

// saveQuizRequest はクイズ結果保存リクエストのボディ。
// 必須項目はポインタで受け、未指定と0を区別する。
type saveQuizRequest struct {
	Mode             *string         `json:"mode"`
	StartTime        *int64          `json:"startTime"`
	Questions        json.RawMessage `json:"questions"`
	QuestionCount    *int            `json:"questionCount"`
	CorrectCount     *int            `json:"correctCount"`
	ElapsedTime      *int64          `json:"elapsedTime"`
	IsCompetition    bool            `json:"isCompetition"`
	AllowCompetition bool            `json:"allowCompetition"`
}

// saveQuizResponse はクイズ結果保存のレスポンス。
type saveQuizResponse struct {
	Message string `json:"message"`
	QID     string `json:"qid"`
}

// saveMistakeRequest は誤答保存リクエストのボディ。
type saveMistakeRequest struct {
	Question      *flexString `json:"question"`
	UserAnswer    *flexString `json:"userAnswer"`
	CorrectAnswer *flexString `json:"correctAnswer"`
}

// Handle はtypeパラメータに応じてクイズ結果または誤答を保存する。
// POST /quiz?type=save_quiz|save_mistake
func (h *QuizHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	switch r.URL.Query().Get("type") {
	case "save_quiz":
		h.saveQuiz(w, r, userID)
	case "save_mistake":
		h.saveMistake(w, r, userID)
	default:
		writeUnknownType(w)
	}
}

func (h *QuizHandler) saveQuiz(w http.ResponseWriter, r *http.Request, userID int64) {
	var req saveQuizRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	qid, err := h.service.SaveQuiz(r.Context(), userID, quiz.SaveQuizInput{
		Mode:             req.Mode,
		StartTime:        req.StartTime,
		Questions:        req.Questions,
		QuestionCount:    req.QuestionCount,
		CorrectCount:     req.CorrectCount,
		UsedTime:         req.ElapsedTime,
		IsCompetition:    req.IsCompetition,
		AllowCompetition: req.AllowCompetition,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, saveQuizResponse{Message: "Success", QID: qid})
}

func (h *QuizHandler) saveMistake(w http.ResponseWriter, r *http.Request, userID int64) {
	var req saveMistakeRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	err := h.service.SaveMistake(r.Context(), userID, quiz.SaveMistakeInput{
		Question:      req.Question.ptr(),
		UserAnswer:    req.UserAnswer.ptr(),
		CorrectAnswer: req.CorrectAnswer.ptr(),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Success"})
}
