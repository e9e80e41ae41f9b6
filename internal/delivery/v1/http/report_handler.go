package http

import (
	"net/http"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

type ReportHandler struct {
	reportUsecase  usecase.ReportUC
	insightUsecase usecase.InsightUC
	logger         logger.Logger
}

func NewReportHandler(reportUsecase usecase.ReportUC, insightUsecase usecase.InsightUC, logger logger.Logger) *ReportHandler {
	return &ReportHandler{reportUsecase: reportUsecase, insightUsecase: insightUsecase, logger: logger}
}

// dashboard
//
//	@Summary	Сводка: выручка, продано единиц, товары с низким остатком, прогресс цели
//	@Tags		reports
//	@Produce	json
//	@Param		period	query		string	false	"all (по умолчанию) или month"
//	@Success	200		{object}	DashboardResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/dashboard [get]
func (h *ReportHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.reportUsecase.Dashboard(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeUseCaseError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newDashboardResponse(res))
}

// getGoal
//
//	@Summary	Текущая цель по выручке
//	@Tags		reports
//	@Produce	json
//	@Success	200	{object}	GoalResponse
//	@Router		/goal [get]
func (h *ReportHandler) getGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.reportUsecase.GetGoal(r.Context())
	if err != nil {
		writeUseCaseError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newGoalResponse(goal))
}

// setGoal
//
//	@Summary	Установка цели по выручке
//	@Tags		reports
//	@Accept		json
//	@Produce	json
//	@Param		goal	body		GoalRequest	true	"Цель"
//	@Success	200		{object}	GoalResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/goal [put]
func (h *ReportHandler) setGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	goal, err := h.reportUsecase.SetGoal(r.Context(), string(req.Amount))
	if err != nil {
		writeUseCaseError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newGoalResponse(goal))
}

// insights
//
//	@Summary	AI-сводка по складу и продажам
//	@Tags		reports
//	@Produce	json
//	@Success	200	{object}	InsightResponse
//	@Failure	503	{object}	ErrorResponse	"Сервис инсайтов недоступен"
//	@Router		/insights [post]
func (h *ReportHandler) insights(w http.ResponseWriter, r *http.Request) {
	res, err := h.insightUsecase.GenerateInsights(r.Context())
	if err != nil {
		writeUseCaseError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newInsightResponse(res))
}
