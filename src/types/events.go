package types

// Inbound events (client to hub).
const (
	EventRegisterGame     = "register:game"
	EventStateUpdate      = "state:update"
	EventRegisterScreen   = "register:screen"
	EventRegisterOperator = "register:operator"
	EventRegisterRecorder = "register:recorder"
	EventRegisterCamera   = "register:camera"
	EventRegisterMusic    = "register:music"

	EventUnregisterScreen   = "unregister:screen"
	EventUnregisterRecorder = "unregister:recorder"
	EventUnregisterCamera   = "unregister:camera"
	EventUnregisterMusic    = "unregister:music"
	EventCommandRequest   = "command"
	EventAdminMessage     = "admin:message"
	EventRecordStartReq   = "admin:record_start"
	EventRecordStopReq    = "admin:record_stop"
	EventRebootCamera     = "admin:reboot_camera"
	EventCameraFrame      = "cam:frame"
	EventAudioChunk       = "audio:chunk"
	EventMusicToggle      = "spotify:toggle"
	EventMusicState       = "spotify:state"
)

// Outbound events (hub to clients).
const (
	EventGamesUpdated   = "games_updated"
	EventCommand        = "command"
	EventDisplayMessage = "screen:display_message"
	EventRecordStart    = "record:start"
	EventRecordStop     = "record:stop"
	EventCmdReboot      = "cmd:reboot"
	EventCommandError   = "cmd:error"
)
