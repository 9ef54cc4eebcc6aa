// Package handlers provides API endpoint handling functionality.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	handlersErrors "github.com/danilovkiri/dk-go-earnhub/internal/api/rest/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/moderation/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1"
	processorService "github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1/processor"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
)

const maxBodySize = 1 << 20

var errNoIdentity = errors.New("no identity in request context")

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	service      processor.Processor
	moderation   moderation.Moderation
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
}

// InitHandlers initializes a handler object.
func InitHandlers(mainService processor.Processor, gateway moderation.Moderation, serverConfig *config.ServerConfig, log *zerolog.Logger) (*Handler, error) {
	if mainService == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil processor was passed to handlers initializer"}
	}
	if gateway == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil moderation gateway was passed to handlers initializer"}
	}
	return &Handler{service: mainService, moderation: gateway, serverConfig: serverConfig, log: log}, nil
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.serverConfig.RequestTimeout)
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errors.New("invalid Content-Type")
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}) {
	resBody, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("response encoding failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(resBody)
	if err != nil {
		h.log.Error().Err(err).Msg("response writing failed")
	}
}

// fail logs err under the handler name and sends the mapped status.
func (h *Handler) fail(w http.ResponseWriter, handler string, err error) {
	h.log.Error().Err(err).Msg(handler + " failed")
	status, reason := handlersErrors.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	h.respond(w, status, modeldto.Error{Message: msg, Reason: reason})
}

func (h *Handler) badRequest(w http.ResponseWriter, handler string, err error) {
	h.log.Error().Err(err).Msg(handler + " failed")
	h.respond(w, http.StatusBadRequest, modeldto.Error{Message: err.Error(), Reason: "invalid_argument"})
}

func identity(r *http.Request) (modelclaims.Identity, error) {
	id, ok := modelclaims.IdentityFrom(r.Context())
	if !ok {
		return modelclaims.Identity{}, errNoIdentity
	}
	return id, nil
}

func (h *Handler) unauthorized(w http.ResponseWriter, handler string) {
	h.log.Error().Err(errNoIdentity).Msg(handler + " failed")
	h.respond(w, http.StatusUnauthorized, modeldto.Error{Message: errNoIdentity.Error(), Reason: "unauthorized"})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleRegister processes user register requests.
func (h *Handler) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		var registration modeldto.Registration
		if err := decode(r, &registration); err != nil {
			h.badRequest(w, "HandleRegister", err)
			return
		}
		h.log.Info().Str("email", registration.Email).Msg("new user register request detected")
		accessToken, user, err := h.service.Register(ctx, processorService.Registration{
			Name:     registration.Name,
			Email:    registration.Email,
			Password: registration.Password,
		})
		if err != nil {
			h.fail(w, "HandleRegister", err)
			return
		}
		w.Header().Set("Authorization", "Bearer "+accessToken)
		h.respond(w, http.StatusCreated, modeldto.Auth{Token: accessToken, User: modeldto.FromUser(user)})
	}
}

// HandleLogin processes user login requests.
func (h *Handler) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		var credentials modeldto.Credentials
		if err := decode(r, &credentials); err != nil {
			h.badRequest(w, "HandleLogin", err)
			return
		}
		if credentials.Email == "" || credentials.Password == "" {
			h.badRequest(w, "HandleLogin", errors.New("empty values are not allowed"))
			return
		}
		accessToken, user, err := h.service.Login(ctx, credentials.Email, credentials.Password)
		if err != nil {
			h.fail(w, "HandleLogin", err)
			return
		}
		w.Header().Set("Authorization", "Bearer "+accessToken)
		h.respond(w, http.StatusOK, modeldto.Auth{Token: accessToken, User: modeldto.FromUser(user)})
	}
}

// HandleProfile returns the caller's account with its wallet balance.
func (h *Handler) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleProfile")
			return
		}
		user, err := h.service.Profile(ctx, id.UserID)
		if err != nil {
			h.fail(w, "HandleProfile", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.FromUser(user))
	}
}

// HandleListTasks returns the active catalog.
func (h *Handler) HandleListTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		tasks, err := h.service.ListTasks(ctx)
		if err != nil {
			h.fail(w, "HandleListTasks", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Tasks(tasks))
	}
}

// HandleSubmitTask processes new submission requests.
func (h *Handler) HandleSubmitTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleSubmitTask")
			return
		}
		var submission modeldto.NewSubmission
		if err := decode(r, &submission); err != nil {
			h.badRequest(w, "HandleSubmitTask", err)
			return
		}
		s, err := h.service.SubmitTask(ctx, id.UserID, submission.TaskID, submission.Proof)
		if err != nil {
			h.fail(w, "HandleSubmitTask", err)
			return
		}
		h.respond(w, http.StatusCreated, modeldto.FromSubmission(s))
	}
}

// HandleGetSubmissions returns the caller's submissions.
func (h *Handler) HandleGetSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleGetSubmissions")
			return
		}
		submissions, err := h.service.ListSubmissions(ctx, id.UserID)
		if err != nil {
			h.fail(w, "HandleGetSubmissions", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Submissions(submissions))
	}
}

// HandleNewWithdrawal processes withdrawal requests.
func (h *Handler) HandleNewWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleNewWithdrawal")
			return
		}
		var withdrawal modeldto.NewWithdrawal
		if err := decode(r, &withdrawal); err != nil {
			h.badRequest(w, "HandleNewWithdrawal", err)
			return
		}
		tx, err := h.service.RequestWithdrawal(ctx, id.UserID, withdrawal.Amount.Decimal, withdrawal.Method, withdrawal.Details)
		if err != nil {
			h.fail(w, "HandleNewWithdrawal", err)
			return
		}
		h.respond(w, http.StatusCreated, modeldto.FromTransaction(tx))
	}
}

// HandleGetTransactions returns the caller's ledger history.
func (h *Handler) HandleGetTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleGetTransactions")
			return
		}
		txs, err := h.service.ListTransactions(ctx, id.UserID)
		if err != nil {
			h.fail(w, "HandleGetTransactions", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Transactions(txs))
	}
}

// HandleReviewSubmission applies an admin decision to a pending submission.
func (h *Handler) HandleReviewSubmission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleReviewSubmission")
			return
		}
		var review modeldto.Review
		if err := decode(r, &review); err != nil {
			h.badRequest(w, "HandleReviewSubmission", err)
			return
		}
		s, err := h.moderation.ReviewSubmission(ctx, id, chi.URLParam(r, "submissionID"), review.Status, review.AdminNote)
		if err != nil {
			h.fail(w, "HandleReviewSubmission", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.FromSubmission(s))
	}
}

// HandleFinalizeWithdrawal completes or rejects a pending withdrawal.
func (h *Handler) HandleFinalizeWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleFinalizeWithdrawal")
			return
		}
		var finalization modeldto.Finalization
		if err := decode(r, &finalization); err != nil {
			h.badRequest(w, "HandleFinalizeWithdrawal", err)
			return
		}
		tx, err := h.moderation.FinalizeWithdrawal(ctx, id, chi.URLParam(r, "transactionID"), finalization.Status)
		if err != nil {
			h.fail(w, "HandleFinalizeWithdrawal", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.FromTransaction(tx))
	}
}

// HandleAdminSubmissions lists all submissions, optionally filtered by ?status=.
func (h *Handler) HandleAdminSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleAdminSubmissions")
			return
		}
		submissions, err := h.moderation.ListSubmissions(ctx, id, r.URL.Query().Get("status"))
		if err != nil {
			h.fail(w, "HandleAdminSubmissions", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Submissions(submissions))
	}
}

// HandleAdminWithdrawals lists all withdrawals, optionally filtered by ?status=.
func (h *Handler) HandleAdminWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleAdminWithdrawals")
			return
		}
		txs, err := h.moderation.ListWithdrawals(ctx, id, r.URL.Query().Get("status"))
		if err != nil {
			h.fail(w, "HandleAdminWithdrawals", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Transactions(txs))
	}
}

// HandleAdminUsers lists all accounts.
func (h *Handler) HandleAdminUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleAdminUsers")
			return
		}
		users, err := h.moderation.ListUsers(ctx, id)
		if err != nil {
			h.fail(w, "HandleAdminUsers", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Users(users))
	}
}

// HandleAdminAudit recomputes one user's balance from the ledger history.
func (h *Handler) HandleAdminAudit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleAdminAudit")
			return
		}
		report, err := h.moderation.AuditUser(ctx, id, chi.URLParam(r, "userID"))
		if err != nil {
			h.fail(w, "HandleAdminAudit", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.AuditReport{
			UserID:     report.UserID,
			Recorded:   modeldto.NewMoney(report.Recorded),
			Expected:   modeldto.NewMoney(report.Expected),
			Earned:     modeldto.NewMoney(report.Earned),
			Withdrawn:  modeldto.NewMoney(report.Withdrawn),
			Consistent: report.Consistent,
		})
	}
}

// HandleAdminTasks lists the whole catalog including inactive tasks.
func (h *Handler) HandleAdminTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleAdminTasks")
			return
		}
		tasks, err := h.moderation.ListTasks(ctx, id)
		if err != nil {
			h.fail(w, "HandleAdminTasks", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.Tasks(tasks))
	}
}

// HandleCreateTask adds a task to the catalog.
func (h *Handler) HandleCreateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleCreateTask")
			return
		}
		var draft modeldto.TaskDraft
		if err := decode(r, &draft); err != nil {
			h.badRequest(w, "HandleCreateTask", err)
			return
		}
		task, err := h.moderation.CreateTask(ctx, id, catalog.Draft{
			Title:        draft.Title,
			Description:  draft.Description,
			Category:     draft.Category,
			Requirements: draft.Requirements,
			Reward:       draft.Reward.Decimal,
		})
		if err != nil {
			h.fail(w, "HandleCreateTask", err)
			return
		}
		h.respond(w, http.StatusCreated, modeldto.FromTask(task))
	}
}

// HandleUpdateTask changes the fields present in the body.
func (h *Handler) HandleUpdateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleUpdateTask")
			return
		}
		var patch modeldto.TaskPatch
		if err := decode(r, &patch); err != nil {
			h.badRequest(w, "HandleUpdateTask", err)
			return
		}
		p := catalog.Patch{
			Title:        patch.Title,
			Description:  patch.Description,
			Category:     patch.Category,
			Requirements: patch.Requirements,
		}
		if patch.Reward != nil {
			reward := patch.Reward.Decimal
			p.Reward = &reward
		}
		if patch.Status != nil {
			status := modelledger.TaskStatus(*patch.Status)
			p.Status = &status
		}
		task, err := h.moderation.UpdateTask(ctx, id, chi.URLParam(r, "taskID"), p)
		if err != nil {
			h.fail(w, "HandleUpdateTask", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.FromTask(task))
	}
}

// HandleDeactivateTask hides a task from the catalog; history referencing it is kept.
func (h *Handler) HandleDeactivateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.withTimeout(r)
		defer cancel()
		id, err := identity(r)
		if err != nil {
			h.unauthorized(w, "HandleDeactivateTask")
			return
		}
		status := modelledger.TaskInactive
		task, err := h.moderation.UpdateTask(ctx, id, chi.URLParam(r, "taskID"), catalog.Patch{Status: &status})
		if err != nil {
			h.fail(w, "HandleDeactivateTask", err)
			return
		}
		h.respond(w, http.StatusOK, modeldto.FromTask(task))
	}
}
