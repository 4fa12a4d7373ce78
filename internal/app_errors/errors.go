package app_errors

import "errors"

// auth and users
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrWeakPassword = errors.New("password must be between 6 and 64 characters")
var ErrTokenNotFound = errors.New("token not found")
var ErrTokenExpired = errors.New("token expired")
var ErrUnauthenticated = errors.New("you must be logged in to do that")
var ErrForbidden = errors.New("you are not allowed to do that")

// uploads
var ErrNotImage = errors.New("not image")
var ErrFileSize = errors.New("file size error")
var ErrImageNotFound = errors.New("image not found")

// products and cart
var ErrProductNotFound = errors.New("product not found")
var ErrNotProductSeller = errors.New("you are not the seller of this product")
var ErrOwnProduct = errors.New("you cannot buy your own product")
var ErrInvalidQuantity = errors.New("quantity must be at least 1")
var ErrOutOfStock = errors.New("not enough stock for this product")
var ErrCartEmpty = errors.New("cart is empty")
var ErrCartItemNotFound = errors.New("cart item not found")

// services and bookings
var ErrServiceNotFound = errors.New("service not found")
var ErrOfferNotFound = errors.New("service offer not found")
var ErrNotServiceProvider = errors.New("you are not the provider of this service")
var ErrOwnService = errors.New("you cannot book your own service")
var ErrInvalidTimeSlot = errors.New("invalid time slot")
var ErrOutsideAvailability = errors.New("requested time is outside provider availability")
var ErrSlotTaken = errors.New("requested time overlaps another booking")
var ErrBookingNotFound = errors.New("booking not found")
var ErrInvalidTransition = errors.New("booking cannot move to that status")

// reviews
var ErrAlreadyReviewed = errors.New("already reviewed")
var ErrNotEligibleToReview = errors.New("you can only review what you bought or booked")
var ErrEmptyReview = errors.New("at least one rating is required")
var ErrRatingOutOfRange = errors.New("ratings must be between 1 and 5")

// courses, study groups and assignments
var ErrCourseNotFound = errors.New("course not found")
var ErrCourseExists = errors.New("course with this code already exists")
var ErrGroupNotFound = errors.New("study group not found")
var ErrGroupFull = errors.New("study group is full")
var ErrAlreadyMember = errors.New("already a member of this study group")
var ErrNotMember = errors.New("you are not a member of this study group")
var ErrOwnerCannotLeave = errors.New("group owner cannot leave the group")
var ErrAssignmentNotFound = errors.New("assignment not found")
var ErrInvalidVote = errors.New("vote must be 1 or -1")
var ErrVoteNotFound = errors.New("vote not found")

// events
var ErrEventNotFound = errors.New("event not found")
var ErrNotOrganizer = errors.New("you are not the organizer of this event")
var ErrEventFull = errors.New("event is full")
var ErrEventPast = errors.New("event has already started")
var ErrAlreadyAttending = errors.New("already attending this event")
var ErrNotAttending = errors.New("not attending this event")

// chat
var ErrChatNotFound = errors.New("chat not found")
var ErrNotParticipant = errors.New("you are not a participant of this chat")
var ErrEmptyMessage = errors.New("message cannot be empty")
var ErrMessageTooLong = errors.New("message is too long")
var ErrChatWithSelf = errors.New("you cannot start a chat with yourself")

// subscriptions and webhooks
var ErrSubscriptionNotFound = errors.New("subscription not found")
var ErrInvalidSignature = errors.New("invalid webhook signature")
var ErrWebhookDuplicate = errors.New("webhook event already processed")
var ErrUnsupportedEvent = errors.New("unsupported webhook event")
