package booking

// Address is where trial lessons take place.
const Address = "10 Dance Street (TangoMania studio)"

const (
	textWelcome = "Hi! 👋 Want to try tango? We run a free lesson for beginners, a perfect chance " +
		"to feel the rhythm and passion of this dance! Would you like to sign up?"
	textDetails = "It's a 60-minute lesson where you learn the basics of tango, take your first steps " +
		"and feel the atmosphere. No experience needed, just come in comfortable clothes! Ready to sign up?"
	textDeclined     = "Too bad, but if you change your mind I'm always here! 😉 Have a nice day!"
	textAskName      = "Great, let's sign you up! What's your name?"
	textChooseSlot   = "Now pick a time that suits you. Here are the free slots:"
	textReenterPhone = "Oops, let's fix it! What's the correct number?"
	textCancelled    = "Booking cancelled. If you change your mind, just send /start again!"
	textFallback     = "Oops, I don't quite understand. Please use the buttons or answer my questions. " +
		"To start over or cancel, use /start or /cancel."
)

func welcomeMessage() Message {
	return plain(textWelcome,
		Button{Label: "Yes, I want to!", Token: TokenSignupYes},
		Button{Label: "Tell me more", Token: TokenDetails},
		Button{Label: "No, thanks", Token: TokenSignupNo},
	)
}

func detailsMessage() Message {
	return plain(textDetails,
		Button{Label: "Yes, sign me up!", Token: TokenSignupYes},
		Button{Label: "No, thanks", Token: TokenSignupNo},
	)
}

func askPhoneMessage(name string) Message {
	return plain("Nice to meet you, " + name + "! Now please share your phone number " +
		"so we can contact you and confirm the booking.")
}

func confirmPhoneMessage(phone string) Message {
	return plain("Thanks! Number recorded: "+phone+". Is that correct?",
		Button{Label: "Yes, that's right", Token: TokenPhoneConfirmYes},
		Button{Label: "No, let me fix it", Token: TokenPhoneConfirmNo},
	)
}

func chooseSlotMessage() Message {
	return plain(textChooseSlot,
		Button{Label: SlotFriday1800.Label(), Token: TokenSlotFriday},
		Button{Label: SlotSaturday1500.Label(), Token: TokenSlotSaturday},
		Button{Label: SlotSunday1700.Label(), Token: TokenSlotSunday},
	)
}

func confirmationMessage(s Session) Message {
	slot := s.Slot.Label()
	return Message{Parts: []Span{
		{Text: "Great, "},
		{Text: slot, Bold: true},
		{Text: "! Booking you, " + s.Name + ", for the free tango lesson.\n\nAll set! 📌 You're booked for "},
		{Text: slot, Bold: true},
		{Text: ". Address: " + Address + ". Come in comfortable clothes and a good mood! " +
			"We'll contact you at " + s.Phone + " if anything changes. " +
			"If your plans change, just send /cancel."},
	}}
}

func reminderMessage(s Session) Message {
	return plain("You're already booked, " + s.Name + ": " + s.Slot.Label() + ". " +
		"To cancel the booking use /cancel, or /start to begin again.")
}

func fallbackMessage() Message {
	return plain(textFallback)
}
