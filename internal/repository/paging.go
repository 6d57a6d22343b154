package repository

// PageQuery holds limit/offset pagination parameters.
// Search is an optional substring filter; repositories that support it apply it
// to their natural text column (users: email, files: filename).
type PageQuery struct {
	Limit  int
	Offset int
	Search string
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
