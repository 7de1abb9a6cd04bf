package install

// systemDir is the system-wide install location on Linux.
const systemDir = "/etc/opt/chrome/native-messaging-hosts"

// userSubDir is the user-specific install location, relative to a user's home
// directory on Linux.
const userSubDir = ".config/google-chrome/NativeMessagingHosts"
