// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteHealth is the public health check.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"
	// RouteStatic serves embedded assets.
	RouteStatic = "/static/*"

	// RouteAdminDashboard is the admin dashboard.
	RouteAdminDashboard = "/admin/dashboard"
	// RouteUserDashboard is the dashboard for regular users.
	RouteUserDashboard = "/user/dashboard"

	// RouteRegisterVisitor is the visitor check-in form.
	RouteRegisterVisitor = "/register-visitor"
	// RouteVisitorLogs lists all visitors.
	RouteVisitorLogs = "/visitor-logs"
	// RouteCheckoutVisitor checks a visitor out.
	RouteCheckoutVisitor = "/checkout-visitor/{id}"

	// RouteAddSuspect is the watchlist entry form.
	RouteAddSuspect = "/add-suspect"
	// RouteSuspectRecords lists the watchlist.
	RouteSuspectRecords = "/suspect-records"

	// RouteAlerts lists and creates alerts.
	RouteAlerts = "/alerts"
	// RouteResolveAlert resolves an alert.
	RouteResolveAlert = "/resolve-alert/{id}"

	// RouteAdminUsers lists user accounts.
	RouteAdminUsers = "/admin/users"
	// RouteAdminAddUser is the account creation form.
	RouteAdminAddUser = "/admin/add-user"
	// RouteAdminDeleteUser deletes an account.
	RouteAdminDeleteUser = "/admin/delete-user/{id}"
	// RouteAdminEvents is the event log viewer.
	RouteAdminEvents = "/admin/events"
)

// Redirect targets.
const (
	redirectLogin           = RouteLogin
	redirectAdminDashboard  = RouteAdminDashboard
	redirectUserDashboard   = RouteUserDashboard
	redirectRegisterVisitor = RouteRegisterVisitor
	redirectVisitorLogs     = RouteVisitorLogs
	redirectAddSuspect      = RouteAddSuspect
	redirectSuspectRecords  = RouteSuspectRecords
	redirectAlerts          = RouteAlerts
	redirectAdminUsers      = RouteAdminUsers
	redirectAdminAddUser    = RouteAdminAddUser
)

// Flash message types, matching the alert-* CSS classes.
const (
	flashTypeSuccess = "success"
	flashTypeInfo    = "info"
	flashTypeWarning = "warning"
	flashTypeDanger  = "danger"
)

// Template names.
const (
	pageLogin           = "login"
	pageAdminDashboard  = "admin_dashboard"
	pageUserDashboard   = "user_dashboard"
	pageRegisterVisitor = "register_visitor"
	pageVisitorLogs     = "visitor_logs"
	pageAddSuspect      = "add_suspect"
	pageSuspectRecords  = "suspect_records"
	pageAlerts          = "alerts"
	pageManageUsers     = "manage_users"
	pageAddUser         = "add_user"
	pageEvents          = "events"
	pageError           = "error"
)

// Flash messages.
const (
	msgLoginSuccessful    = "Login successful!"
	msgInvalidCredentials = "Invalid username or password"
	msgLoggedOut          = "You have been logged out."
	msgCredentialsMissing = "Username and password are required."
	msgAccountLocked      = "Too many failed attempts. Try again in %s."
	msgAttemptsRemaining  = "Invalid username or password. %d attempts remaining."
	msgInvalidForm        = "Invalid form data"
	msgSomethingWrong     = "Something went wrong. Please try again."

	msgVisitorRegistered = "Visitor registered successfully!"
	msgVisitorCheckedOut = "Visitor checked out successfully!"
	msgVisitorNotFound   = "Visitor not found."
	msgVisitorAlreadyOut = "Visitor is already checked out."

	msgSuspectAdded = "Suspect added successfully!"

	msgAlertCreated  = "Alert created successfully!"
	msgAlertResolved = "Alert resolved!"
	msgAlertNotFound = "Alert not found."
	msgAlertAlready  = "Alert is already resolved."

	msgUsernameExists   = "Username already exists!"
	msgUserCreated      = "User %s created successfully!"
	msgUserDeleted      = "User deleted successfully!"
	msgProtectedAccount = "Cannot delete the main admin account!"
	msgSelfDeletion     = "You cannot delete your own account!"
	msgUserNotFound     = "User not found."
)
