package install

// systemDir is the system-wide install location on macOS.
const systemDir = "/Library/Google/Chrome/NativeMessagingHosts"

// userSubDir is the user-specific install location, relative to a user's home
// directory on macOS.
const userSubDir = "Library/Application Support/Google/Chrome/NativeMessagingHosts"
