package nxdnradio

import "errors"

// Sentinel errors returned by the driver. Callers should compare with
// errors.Is, since internal call sites wrap these with additional context.
var (
	ErrIllegalArgument     = errors.New("illegal argument")
	ErrIllegalBaudrate     = errors.New("illegal baudrate")
	ErrDeviceNotFound      = errors.New("serial device not found")
	ErrChannelTimeout      = errors.New("channel did not become free before timeout")
	ErrConfirmationTimeout = errors.New("radio did not confirm command before timeout")
	ErrPayloadTooLarge     = errors.New("payload exceeds maximum transportable size")
	ErrSendMaxRetries      = errors.New("send failed after maximum number of retries")
	ErrReceiveTimeout      = errors.New("chunk reassembly timed out waiting for continuation")
	ErrListenerNotDefined  = errors.New("no listener registered for topic")
	ErrNotRunning          = errors.New("driver is not running")
	ErrAlreadyRunning      = errors.New("driver is already running")
)
