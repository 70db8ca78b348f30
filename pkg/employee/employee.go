package employee

type Employee struct {
	Id       int
	Email    string
	FullName string
	Status   string
}
