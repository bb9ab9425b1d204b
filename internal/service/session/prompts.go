package session

// WelcomeMessage is synthesized and pushed when a session starts.
const WelcomeMessage = "Hello! I'm your AI voice assistant. I'm here to help you with any questions or conversations you'd like to have. How can I assist you today?"

// ProcessingErrorMessage is the single client-facing text for every turn
// failure; the specific failure kind stays in server logs.
const ProcessingErrorMessage = "I'm having trouble processing that. Could you rephrase your question?"
