package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contractor-portal/internal/api/dto"
	"github.com/spec-kit/contractor-portal/internal/auth"
	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/service"
	"github.com/spec-kit/contractor-portal/pkg/util/errorutil"
)

// ApprovalsHandler serves the admin approval back office.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
	staging   *service.StagingService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvals *service.ApprovalService, staging *service.StagingService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals, staging: staging}
}

// Pending handles GET /admin/approvals.
func (h *ApprovalsHandler) Pending(c *fiber.Ctx) error {
	queue, err := h.approvals.ListPending(c.UserContext())
	if err != nil {
		return errorutil.NewInternalError(err)
	}

	resp := dto.PendingResponse{
		Users:       make([]dto.UserResponse, 0, len(queue.Users)),
		Contractors: make([]dto.ContractorResponse, 0, len(queue.Contractors)),
		Staging:     make([]dto.StagingResponse, 0, len(queue.Staging)),
		Mergeable:   domain.FieldNames(domain.MergeFields),
	}
	for i := range queue.Users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&queue.Users[i]))
	}
	for i := range queue.Contractors {
		resp.Contractors = append(resp.Contractors, dto.NewContractorResponse(&queue.Contractors[i]))
	}
	for i := range queue.Staging {
		resp.Staging = append(resp.Staging, dto.NewStagingResponse(&queue.Staging[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ApproveUser handles POST /admin/users/:id/approve.
func (h *ApprovalsHandler) ApproveUser(c *fiber.Ctx) error {
	res, err := h.approvals.ApproveUser(c.UserContext(), c.Params("id"), adminID(c))
	return respondResult(c, res, err)
}

// RejectUser handles POST /admin/users/:id/reject.
func (h *ApprovalsHandler) RejectUser(c *fiber.Ctx) error {
	reason, err := rejectReason(c)
	if err != nil {
		return err
	}
	res, err := h.approvals.RejectUser(c.UserContext(), c.Params("id"), adminID(c), reason)
	return respondResult(c, res, err)
}

// ApproveContractor handles POST /admin/contractors/:id/approve.
func (h *ApprovalsHandler) ApproveContractor(c *fiber.Ctx) error {
	res, err := h.approvals.ApproveContractor(c.UserContext(), c.Params("id"), adminID(c))
	return respondResult(c, res, err)
}

// RejectContractor handles POST /admin/contractors/:id/reject.
func (h *ApprovalsHandler) RejectContractor(c *fiber.Ctx) error {
	reason, err := rejectReason(c)
	if err != nil {
		return err
	}
	res, err := h.approvals.RejectContractor(c.UserContext(), c.Params("id"), adminID(c), reason)
	return respondResult(c, res, err)
}

// MergeStaging handles POST /admin/staging/:id/merge.
func (h *ApprovalsHandler) MergeStaging(c *fiber.Ctx) error {
	var req dto.MergeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	fields, err := domain.ParseFieldSet(req.Fields)
	if err != nil {
		return errorutil.NewValidationError(err.Error(), map[string]any{
			"mergeable_fields": domain.FieldNames(domain.MergeFields),
		})
	}
	res, err := h.staging.Merge(c.UserContext(), c.Params("id"), adminID(c), fields)
	return respondResult(c, res, err)
}

// KeepStaging handles POST /admin/staging/:id/keep.
func (h *ApprovalsHandler) KeepStaging(c *fiber.Ctx) error {
	res, err := h.staging.Keep(c.UserContext(), c.Params("id"), adminID(c))
	return respondResult(c, res, err)
}

func adminID(c *fiber.Ctx) string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return ""
	}
	return principal.User.ID
}

// rejectReason reads the optional body; an empty body means no reason.
func rejectReason(c *fiber.Ctx) (string, error) {
	if len(c.Body()) == 0 {
		return "", nil
	}
	var req dto.RejectRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	return req.Reason, nil
}
