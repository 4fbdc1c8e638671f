package rbac

// Default policy. Learners act only on their own enrollment state; the
// certificate verification endpoint is public and needs no permission.
var RolePermissions = map[string][]string{
	"learner": {
		"course:enroll",
		"progress:view-own",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"result:view-own",
		"certificate:request",
	},
	"admin": {
		"*", // everything
	},
}
