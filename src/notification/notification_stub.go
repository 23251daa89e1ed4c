//go:build !windows

package notification

// showMessageBox has no dialog outside Windows; the message is already logged.
func showMessageBox(title, message string, isError bool) error {
	return nil
}
