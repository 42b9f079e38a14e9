package conversation

import "fmt"

// MessageKind identifies a customer-facing reply template
type MessageKind string

const (
	MsgGreeting           MessageKind = "greeting"
	MsgProductListHeader  MessageKind = "product_list_header"
	MsgProductListItem    MessageKind = "product_list_item"
	MsgProductListFooter  MessageKind = "product_list_footer"
	MsgNoResults          MessageKind = "no_results"
	MsgConfirmProduct     MessageKind = "confirm_product"
	MsgAskQuantity        MessageKind = "ask_quantity"
	MsgAskName            MessageKind = "ask_name"
	MsgAskEmail           MessageKind = "ask_email"
	MsgAskAddress         MessageKind = "ask_address"
	MsgOrderSummary       MessageKind = "order_summary"
	MsgOrderConfirmed     MessageKind = "order_confirmed"
	MsgOrderStatus        MessageKind = "order_status"
	MsgNoOrders           MessageKind = "no_orders"
	MsgConfirmCancelOrder MessageKind = "confirm_cancel_order"
	MsgOrderCancelled     MessageKind = "order_cancelled"
	MsgCannotCancel       MessageKind = "cannot_cancel"
	MsgFlowCancelled      MessageKind = "flow_cancelled"
	MsgInvalidSelection   MessageKind = "invalid_selection"
	MsgInvalidQuantity    MessageKind = "invalid_quantity"
	MsgInvalidEmail       MessageKind = "invalid_email"
	MsgDidNotUnderstand   MessageKind = "did_not_understand"
	MsgApology            MessageKind = "apology"
)

// templates is the pure lookup table keyed by (message kind, language).
// Missing translations fall back to English so a new kind can ship before
// all languages catch up.
var templates = map[MessageKind]map[Language]string{
	MsgGreeting: {
		LanguageEnglish: "Hello! Tell me what you are looking for and I will check our catalog.",
		LanguageArabic:  "مرحبا! قل لي ماذا تريد وسأبحث في الكتالوج.",
		LanguageFrench:  "Bonjour ! Dites-moi ce que vous cherchez et je consulte le catalogue.",
	},
	MsgProductListHeader: {
		LanguageEnglish: "Here is what I found:",
		LanguageArabic:  "هذا ما وجدته:",
		LanguageFrench:  "Voici ce que j'ai trouvé :",
	},
	MsgProductListItem: {
		LanguageEnglish: "%d. %s — $%s",
		LanguageArabic:  "%d. %s — $%s",
		LanguageFrench:  "%d. %s — %s $",
	},
	MsgProductListFooter: {
		LanguageEnglish: "Reply with a number to choose, or 'next' for more.",
		LanguageArabic:  "أرسل رقم المنتج للاختيار أو 'التالي' للمزيد.",
		LanguageFrench:  "Répondez avec un numéro pour choisir, ou 'suivant' pour la suite.",
	},
	MsgNoResults: {
		LanguageEnglish: "I could not find anything matching '%s'. Try another search.",
		LanguageArabic:  "لم أجد شيئا يطابق '%s'. جرب بحثا آخر.",
		LanguageFrench:  "Je n'ai rien trouvé pour '%s'. Essayez une autre recherche.",
	},
	MsgConfirmProduct: {
		LanguageEnglish: "%s costs $%s. Would you like it? (yes/no)",
		LanguageArabic:  "سعر %s هو $%s. هل تريده؟ (نعم/لا)",
		LanguageFrench:  "%s coûte %s $. Le voulez-vous ? (oui/non)",
	},
	MsgAskQuantity: {
		LanguageEnglish: "How many would you like?",
		LanguageArabic:  "كم قطعة تريد؟",
		LanguageFrench:  "Combien en voulez-vous ?",
	},
	MsgAskName: {
		LanguageEnglish: "What name should I put on the order?",
		LanguageArabic:  "ما الاسم الذي أضعه على الطلب؟",
		LanguageFrench:  "À quel nom dois-je mettre la commande ?",
	},
	MsgAskEmail: {
		LanguageEnglish: "What is your email? Reply 'skip' if you prefer not to share it.",
		LanguageArabic:  "ما هو بريدك الإلكتروني؟ أرسل 'تخطي' إذا لم ترد مشاركته.",
		LanguageFrench:  "Quelle est votre adresse e-mail ? Répondez 'passer' pour l'ignorer.",
	},
	MsgAskAddress: {
		LanguageEnglish: "What is the delivery address?",
		LanguageArabic:  "ما هو عنوان التوصيل؟",
		LanguageFrench:  "Quelle est l'adresse de livraison ?",
	},
	MsgOrderSummary: {
		LanguageEnglish: "Your order: %s x%s — total $%s, delivered to %s. Confirm? (yes/no)",
		LanguageArabic:  "طلبك: %s x%s — المجموع $%s، التوصيل إلى %s. تأكيد؟ (نعم/لا)",
		LanguageFrench:  "Votre commande : %s x%s — total %s $, livrée à %s. Confirmer ? (oui/non)",
	},
	MsgOrderConfirmed: {
		LanguageEnglish: "Thank you! Your order %s is confirmed. We will message you when it is on the way.",
		LanguageArabic:  "شكرا! تم تأكيد طلبك %s. سنراسلك عندما يصبح في الطريق.",
		LanguageFrench:  "Merci ! Votre commande %s est confirmée. Nous vous écrirons quand elle sera en route.",
	},
	MsgOrderStatus: {
		LanguageEnglish: "Your order %s is currently: %s.",
		LanguageArabic:  "حالة طلبك %s حاليا: %s.",
		LanguageFrench:  "Votre commande %s est actuellement : %s.",
	},
	MsgNoOrders: {
		LanguageEnglish: "You have no orders yet. Tell me what you are looking for!",
		LanguageArabic:  "ليس لديك طلبات بعد. قل لي ماذا تريد!",
		LanguageFrench:  "Vous n'avez pas encore de commande. Dites-moi ce que vous cherchez !",
	},
	MsgConfirmCancelOrder: {
		LanguageEnglish: "Do you want to cancel order %s? (yes/no)",
		LanguageArabic:  "هل تريد إلغاء الطلب %s؟ (نعم/لا)",
		LanguageFrench:  "Voulez-vous annuler la commande %s ? (oui/non)",
	},
	MsgOrderCancelled: {
		LanguageEnglish: "Order %s has been cancelled.",
		LanguageArabic:  "تم إلغاء الطلب %s.",
		LanguageFrench:  "La commande %s a été annulée.",
	},
	MsgCannotCancel: {
		LanguageEnglish: "Order %s can no longer be cancelled (status: %s).",
		LanguageArabic:  "لا يمكن إلغاء الطلب %s بعد الآن (الحالة: %s).",
		LanguageFrench:  "La commande %s ne peut plus être annulée (statut : %s).",
	},
	MsgFlowCancelled: {
		LanguageEnglish: "No problem, I cancelled that. Message me whenever you want to order.",
		LanguageArabic:  "لا مشكلة، تم الإلغاء. راسلني متى أردت الطلب.",
		LanguageFrench:  "Pas de problème, c'est annulé. Écrivez-moi quand vous voulez commander.",
	},
	MsgInvalidSelection: {
		LanguageEnglish: "I didn't understand. Reply with one of the listed numbers, 'next' for more, or a new search.",
		LanguageArabic:  "لم أفهم. أرسل أحد الأرقام المعروضة أو 'التالي' للمزيد أو بحثا جديدا.",
		LanguageFrench:  "Je n'ai pas compris. Répondez avec un des numéros affichés, 'suivant' pour la suite, ou une nouvelle recherche.",
	},
	MsgInvalidQuantity: {
		LanguageEnglish: "I didn't understand. Please send the quantity as a whole number, like 2.",
		LanguageArabic:  "لم أفهم. أرسل الكمية كرقم صحيح، مثل 2.",
		LanguageFrench:  "Je n'ai pas compris. Envoyez la quantité en chiffre entier, par exemple 2.",
	},
	MsgInvalidEmail: {
		LanguageEnglish: "That doesn't look like an email. Try again, or reply 'skip'.",
		LanguageArabic:  "هذا لا يبدو بريدا إلكترونيا. حاول مرة أخرى أو أرسل 'تخطي'.",
		LanguageFrench:  "Cela ne ressemble pas à un e-mail. Réessayez, ou répondez 'passer'.",
	},
	MsgDidNotUnderstand: {
		LanguageEnglish: "Sorry, I didn't understand that. You can search for a product, or send 'cancel' to start over.",
		LanguageArabic:  "عذرا، لم أفهم. يمكنك البحث عن منتج أو إرسال 'الغاء' للبدء من جديد.",
		LanguageFrench:  "Désolé, je n'ai pas compris. Cherchez un produit, ou envoyez 'annuler' pour recommencer.",
	},
	MsgApology: {
		LanguageEnglish: "Sorry, something went wrong on our side. Please try again in a moment.",
		LanguageArabic:  "عذرا، حدث خطأ من جهتنا. حاول مرة أخرى بعد قليل.",
		LanguageFrench:  "Désolé, une erreur s'est produite de notre côté. Réessayez dans un instant.",
	},
}

// Renderer renders customer-facing messages from the template table. It is a
// collaborator injected into the dialog engine so translations stay out of
// the state machine.
type Renderer struct{}

// Render looks up the template for the kind and language and formats it with
// the given arguments. Unknown languages fall back to English; an unknown
// kind renders the generic apology so the customer never sees raw internals.
func (Renderer) Render(kind MessageKind, lang Language, args ...any) string {
	byLang, ok := templates[kind]
	if !ok {
		byLang = templates[MsgApology]
	}
	tmpl, ok := byLang[lang]
	if !ok {
		tmpl = byLang[LanguageEnglish]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// ApologyText returns the English apology used when a turn fails before the
// customer's language is known
func ApologyText() string {
	return templates[MsgApology][LanguageEnglish]
}
