package command

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-workspaces/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrUserIDRequired occurs when profile or assignment commands omit the user.
	ErrUserIDRequired = types.ErrUserIDRequired
	// ErrWorkspaceIDRequired occurs when a workspace command omits the workspace.
	ErrWorkspaceIDRequired = errors.New("go-workspaces: workspace id required")
	// ErrWorkspaceNameRequired occurs when a workspace is created without name or code.
	ErrWorkspaceNameRequired = errors.New("go-workspaces: workspace name and code required")
	// ErrRoleIDRequired signals the role ID was missing.
	ErrRoleIDRequired = errors.New("go-workspaces: role id required")
	// ErrRoleNameRequired occurs when a role command omits the role name.
	ErrRoleNameRequired = errors.New("go-workspaces: role name required")
	// ErrMemberRequired occurs when an assignment names neither or both of a user and a group.
	ErrMemberRequired = errors.New("go-workspaces: exactly one of user id or group id required")
	// ErrCustomRolesDisabled indicates custom role binding is disabled via feature gate.
	ErrCustomRolesDisabled = errors.New("go-workspaces: custom roles disabled")
	// ErrActivityVerbRequired indicates an activity log entry is missing a verb.
	ErrActivityVerbRequired = errors.New("go-workspaces: activity verb required")
	// ErrMissingStore occurs when a command was built without its store.
	ErrMissingStore = errors.New("go-workspaces: command store required")
)

// RichError translates domain errors into go-errors values carrying a
// category, an HTTP code and a stable text code. Errors that already are
// rich errors are returned unchanged.
func RichError(err error) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	category := goerrors.CategoryInternal
	code := goerrors.CodeInternal
	textCode := "INTERNAL"
	switch {
	case errors.Is(err, types.ErrInvalidRoleName):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "INVALID_ROLE_NAME"
	case errors.Is(err, types.ErrImmutableRole):
		category, code, textCode = goerrors.CategoryAuthz, goerrors.CodeForbidden, "IMMUTABLE_ROLE"
	case errors.Is(err, types.ErrUnpersistedWorkspace):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "UNPERSISTED_WORKSPACE"
	case errors.Is(err, types.ErrBaseRolesInitialized):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "BASE_ROLES_INITIALIZED"
	case errors.Is(err, types.ErrDuplicateRoleName):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "DUPLICATE_ROLE_NAME"
	case errors.Is(err, types.ErrCrossWorkspaceBinding):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "CROSS_WORKSPACE_BINDING"
	case errors.Is(err, types.ErrTreeCycle):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "ROLE_TREE_CYCLE"
	case errors.Is(err, types.ErrRoleNotFound):
		category, code, textCode = goerrors.CategoryNotFound, goerrors.CodeNotFound, "ROLE_NOT_FOUND"
	case errors.Is(err, types.ErrWorkspaceNotFound):
		category, code, textCode = goerrors.CategoryNotFound, goerrors.CodeNotFound, "WORKSPACE_NOT_FOUND"
	case errors.Is(err, types.ErrUnauthorizedScope):
		category, code, textCode = goerrors.CategoryAuthz, goerrors.CodeForbidden, "FORBIDDEN"
	case errors.Is(err, ErrCustomRolesDisabled):
		category, code, textCode = goerrors.CategoryAuthz, goerrors.CodeForbidden, "CUSTOM_ROLES_DISABLED"
	case errors.Is(err, ErrActorRequired),
		errors.Is(err, ErrUserIDRequired),
		errors.Is(err, ErrWorkspaceIDRequired),
		errors.Is(err, ErrWorkspaceNameRequired),
		errors.Is(err, ErrRoleIDRequired),
		errors.Is(err, ErrRoleNameRequired),
		errors.Is(err, ErrMemberRequired),
		errors.Is(err, ErrActivityVerbRequired):
		category, code, textCode = goerrors.CategoryValidation, goerrors.CodeBadRequest, "BAD_REQUEST"
	}

	return goerrors.Wrap(err, category, err.Error()).
		WithCode(code).
		WithTextCode(textCode)
}
