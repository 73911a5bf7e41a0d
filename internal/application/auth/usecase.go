package auth

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
	"github.com/inventasur/bodega-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro de empresa y login.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	roleRepo    repository.RoleRepository
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	roleRepo repository.RoleRepository,
	jwtCfg JWTConfig,
) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, roleRepo: roleRepo, jwtCfg: jwtCfg}
}

// AdminPermissions es el conjunto completo de permisos, asignado al rol admin
// que se crea junto con cada empresa.
func AdminPermissions() []string {
	return []string{
		entity.PermBranchesManage,
		entity.PermWarehousesManage,
		entity.PermCustomersManage,
		entity.PermProductsManage,
		entity.PermMovementsCreate,
		entity.PermClosuresView,
		entity.PermClosuresManage,
		entity.PermClosuresApprove,
		entity.PermDTEImport,
		entity.PermRolesManage,
		entity.PermUsersManage,
	}
}

// Register crea la empresa, su rol admin y el primer usuario con ese rol.
// Devuelve ErrDuplicate si ya existe una empresa con ese RUT y
// ErrEmailAlreadyExists si el email ya está en uso.
func (uc *AuthUseCase) Register(in dto.RegisterRequest) (*dto.UserResponse, error) {
	if existing, _ := uc.companyRepo.GetByRUT(in.CompanyRUT); existing != nil {
		return nil, domain.ErrDuplicate
	}
	if existing, _ := uc.userRepo.FindByEmail(in.Email); existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      in.CompanyName,
		RUT:       in.CompanyRUT,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.companyRepo.Create(company); err != nil {
		return nil, err
	}

	role := &entity.Role{
		ID:          uuid.New().String(),
		CompanyID:   company.ID,
		Name:        entity.RoleAdmin,
		Description: "Administrador de la empresa",
		Permissions: AdminPermissions(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.roleRepo.Create(role); err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = in.Email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    company.ID,
		RoleID:       role.ID,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         name,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(user); err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	resp.RoleName = role.Name
	return resp, nil
}

// Login verifica email/password, genera JWT con rol y permisos, y retorna token + usuario.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	role, err := uc.roleRepo.GetByID(user.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, role.Name, role.Permissions, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	resp.RoleName = role.Name
	return &dto.LoginResponse{
		Token: token,
		User:  *resp,
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		RoleID:    u.RoleID,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
