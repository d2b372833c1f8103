// Package profile stores user profiles in the user_profiles table. Profiles
// are public to every authenticated user and edited by their owner.
package profile
