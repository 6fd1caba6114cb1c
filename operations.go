package jsonapibridge

// OperationKind names one of the data-provider request types the Bridge translates.
type OperationKind string

const (
	OpGetList          OperationKind = "GET_LIST"
	OpGetOne           OperationKind = "GET_ONE"
	OpCreate           OperationKind = "CREATE"
	OpUpdate           OperationKind = "UPDATE"
	OpDelete           OperationKind = "DELETE"
	OpGetMany          OperationKind = "GET_MANY"
	OpGetManyReference OperationKind = "GET_MANY_REFERENCE"
)

// OperationKinds lists every supported kind in dispatch-table order.
var OperationKinds = []OperationKind{
	OpGetList,
	OpGetOne,
	OpCreate,
	OpUpdate,
	OpDelete,
	OpGetMany,
	OpGetManyReference,
}

// Valid reports whether k is one of the supported kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case OpGetList, OpGetOne, OpCreate, OpUpdate, OpDelete, OpGetMany, OpGetManyReference:
		return true
	}
	return false
}

func (k OperationKind) String() string {
	return string(k)
}

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type Pagination struct {
	Page    int `validate:"gte=1"`
	PerPage int `validate:"gte=1"`
}

type Sort struct {
	Field string    `validate:"required"`
	Order SortOrder `validate:"oneof=ASC DESC"`
}

// Params carries the operation-specific parameters. Each kind reads only the
// fields it needs:
//
//	GET_LIST            Pagination, Filter, Sort
//	GET_ONE, DELETE     ID
//	CREATE              Data
//	UPDATE              ID, Data
//	GET_MANY            IDs
//	GET_MANY_REFERENCE  Target, ID
type Params struct {
	Pagination Pagination
	Filter     *Filter
	Sort       *Sort

	ID     string
	IDs    []string
	Target string
	Data   map[string]any
}
