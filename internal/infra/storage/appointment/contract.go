package appointment

import "github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"

// DBExecutor и TxExecutor переиспользуются из dbmetrics
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// rowScanner реализуют *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}
