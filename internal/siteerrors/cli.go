package siteerrors

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCategory(err) {
	case CategoryConfig:
		return 7
	case CategoryContent:
		return 3
	case CategoryRender:
		return 4
	case CategoryNotFound, CategoryOutOfRange:
		return 2
	case CategoryFileSystem:
		return 11
	default:
		return 1
	}
}
