// Package catalog loads the declarative permission/role specification that
// drives startup reconciliation of the RBAC tables.
//
// The catalog is a JSON document with three top-level fields:
//
//	{
//	  "permissions": ["task.admin", "user.list"],
//	  "roles": {"admin": ["task.admin", "user.list"], "user": []},
//	  "options": {"default_role": "user"}
//	}
//
// Comments and trailing commas are tolerated in the source file. The loaded
// Catalog value is immutable and shared for the process lifetime; there is
// no hot reload.
package catalog
