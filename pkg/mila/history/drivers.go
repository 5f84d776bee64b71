package history

// Database driver imports for side-effect registration with database/sql.
// These drivers back history.driver: postgres and mysql.

import (
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
)
