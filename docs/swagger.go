package docs

// Swagger documentation info
// @title HRMS RBAC API
// @version 1.0
// @description Roles, permission matrix and access checks for the HRMS backend
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// RBAC Service Endpoints
// @tag.name roles
// @tag.description Role management
// @tag.name catalog
// @tag.description Modules and permissions
// @tag.name role-permissions
// @tag.description Permission matrix of a role
// @tag.name role-users
// @tag.description Role membership
// @tag.name access
// @tag.description Capability and route checks
// @tag.name cache
// @tag.description Capability cache administration
